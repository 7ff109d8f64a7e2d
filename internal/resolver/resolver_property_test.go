package resolver

import (
	"path"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"modresolve/internal/registry"
)

func segmentGen() gopter.Gen {
	return gen.OneConstOf("a", "b", "src", "lib", "node_modules", "pkg")
}

func dirGen() gopter.Gen {
	return gen.SliceOfN(4, segmentGen()).Map(func(parts []string) string {
		return "/" + strings.Join(parts, "/")
	})
}

func TestResolverProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(4242)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("unknown packages fall back unchanged and stay memoized", prop.ForAll(
		func(name, base string) bool {
			r := New(registry.New(registry.Snapshot{}), Options{})
			request := "unknown-" + name
			first := r.Resolve(request, base)
			second := r.Resolve(request, base)
			return first == request && second == request
		},
		gen.Identifier(),
		dirGen(),
	))

	properties.Property("core ids win from every base", prop.ForAll(
		func(base string) bool {
			reg := registry.New(registry.Snapshot{
				Files: []string{base + "/node_modules/alloy.js", base + "/alloy.js"},
				Core:  []registry.Entry{{ID: "alloy", Path: "/core/alloy.js"}},
			})
			return New(reg, Options{}).Resolve("alloy", base) == "/core/alloy"
		},
		dirGen(),
	))

	properties.Property("modules dirs are nearest first and never hang off a node_modules tip", prop.ForAll(
		func(start string) bool {
			dirs := modulesDirs(start)
			if len(dirs) == 0 || dirs[len(dirs)-1] != "/node_modules" {
				return false
			}
			for i, d := range dirs {
				if path.Base(d) != "node_modules" || path.Base(path.Dir(d)) == "node_modules" {
					return false
				}
				if i > 0 && len(d) >= len(dirs[i-1]) {
					return false
				}
			}
			return true
		},
		dirGen(),
	))

	properties.Property("nearer package shadows farther one", prop.ForAll(
		func(base string) bool {
			near := base + "/node_modules/x/index.js"
			reg := registry.New(registry.Snapshot{
				Files: []string{near, "/node_modules/x/index.js"},
				Directories: []registry.Entry{
					{ID: base + "/node_modules/x", Path: near},
					{ID: "/node_modules/x", Path: "/node_modules/x/index.js"},
				},
			})
			got := New(reg, Options{}).Resolve("x", base+"/deeper")
			return got == base+"/node_modules/x/index"
		},
		dirGen().SuchThat(func(d string) bool { return !strings.HasSuffix(d, "/node_modules") }),
	))

	properties.Property("resolved paths carry no probe extension", prop.ForAll(
		func(dir, name string) bool {
			reg := registry.New(registry.Snapshot{Files: []string{dir + "/" + name + ".json"}})
			got := New(reg, Options{}).Resolve("./"+name, dir)
			return got == dir+"/"+name && extname(got) == ""
		},
		dirGen(),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
