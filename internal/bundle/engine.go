// SPDX-License-Identifier: MPL-2.0

package bundle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"micropack-cli/internal/format"
)

// engineOptions derives the esbuild configuration for one (entry, format)
// pair. The input side (entry, externals, transforms) is identical across
// formats; only the output side (path, module format, wrapper) varies.
func (b *Build) engineOptions(entry string, f format.Format) api.BuildOptions {
	plan := b.Planner.Plan(entry, f)

	opts := api.BuildOptions{
		EntryPoints:   []string{entry},
		Bundle:        true,
		Write:         false,
		Outfile:       plan.AbsPath,
		AbsWorkingDir: b.CWD,
		LogLevel:      api.LogLevelSilent,

		MinifyWhitespace:  b.Compress,
		MinifySyntax:      b.Compress,
		MinifyIdentifiers: b.Compress,

		Define:      b.Define,
		Alias:       b.Alias,
		Tsconfig:    b.Tsconfig,
		JSXFactory:  b.JSX,
		JSXFragment: b.JSXFragment,

		Plugins: []api.Plugin{
			b.externalPlugin(entry),
			b.shebangPlugin(entry),
		},
	}

	if b.Target == "node" {
		opts.Platform = api.PlatformNode
	} else {
		opts.Platform = api.PlatformBrowser
	}
	if b.Sourcemap {
		opts.Sourcemap = api.SourceMapLinked
	}

	// Property mangling: stable across builds via the persisted name cache.
	if b.Compress {
		if re := b.NameCache.MangleRegex(b.Pkg); re != "" {
			opts.MangleProps = re
			opts.MangleCache = b.NameCache.EngineCache()
		}
	}

	switch f {
	case format.Modern:
		opts.Format = api.FormatESModule
		opts.Target = api.ESNext
	case format.ES:
		opts.Format = api.FormatESModule
		opts.Target = api.ES2017
	case format.UMD:
		// The engine has no UMD emitter; build CommonJS and wrap it in the
		// classic UMD prelude, resolving externals through the globals map
		// in the plain-script branch.
		opts.Format = api.FormatCommonJS
		opts.Target = api.ES2017
		opts.Banner = map[string]string{"js": b.umdBanner()}
		opts.Footer = map[string]string{"js": umdFooter}
	default:
		opts.Format = api.FormatCommonJS
		opts.Target = api.ES2017
	}

	if b.Strict && (f == format.CJS || f == format.UMD) {
		banner := `"use strict";`
		if prev := opts.Banner["js"]; prev != "" {
			banner = banner + "\n" + prev
		}
		opts.Banner = map[string]string{"js": banner}
	}

	return opts
}

// externalPlugin marks matching import specifiers as external instead of
// bundling them. Relative imports are resolved against the importer first so
// sibling entries stay external however they are referenced.
func (b *Build) externalPlugin(entry string) api.Plugin {
	matcher := b.matcherFor(entry)
	siblings := map[string]struct{}{}
	for _, e := range b.Entries {
		if e != entry {
			siblings[e] = struct{}{}
		}
	}

	return api.Plugin{
		Name: "micropack-externals",
		Setup: func(pb api.PluginBuild) {
			pb.OnResolve(api.OnResolveOptions{Filter: ".*"}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				if args.Kind == api.ResolveEntryPoint {
					return api.OnResolveResult{}, nil
				}
				if strings.HasPrefix(args.Path, ".") {
					abs := filepath.Clean(filepath.Join(args.ResolveDir, args.Path))
					for _, probe := range []string{abs, abs + ".js", abs + ".ts", abs + ".tsx", abs + ".mjs"} {
						if _, ok := siblings[probe]; ok {
							return api.OnResolveResult{Path: args.Path, External: true}, nil
						}
					}
					return api.OnResolveResult{}, nil
				}
				if matcher.IsExternal(args.Path) {
					return api.OnResolveResult{Path: args.Path, External: true}, nil
				}
				return api.OnResolveResult{}, nil
			})
		},
	}
}

// shebangPlugin strips a leading interpreter directive from the entry source
// before the engine parses it, recording it for reinjection when the
// artifact is written.
func (b *Build) shebangPlugin(entry string) api.Plugin {
	filter := "^" + regexp.QuoteMeta(filepath.ToSlash(entry)) + "$"
	return api.Plugin{
		Name: "micropack-shebang",
		Setup: func(pb api.PluginBuild) {
			pb.OnLoad(api.OnLoadOptions{Filter: filter}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				data, err := os.ReadFile(args.Path)
				if err != nil {
					return api.OnLoadResult{}, fmt.Errorf("read entry %s: %w", args.Path, err)
				}
				contents := b.Shebangs.Strip(entry, string(data))
				loader := loaderForPath(args.Path)
				resolveDir := filepath.Dir(args.Path)
				return api.OnLoadResult{
					Contents:   &contents,
					Loader:     loader,
					ResolveDir: resolveDir,
				}, nil
			})
		},
	}
}

func loaderForPath(p string) api.Loader {
	switch filepath.Ext(p) {
	case ".ts", ".mts", ".cts":
		return api.LoaderTS
	case ".tsx":
		return api.LoaderTSX
	case ".jsx":
		return api.LoaderJSX
	default:
		return api.LoaderJS
	}
}

// umdFooter closes the factory opened by umdBanner.
const umdFooter = "\n}));\n"

// umdBanner emits the UMD prelude: CommonJS when module/exports exist, AMD
// when define.amd exists, else a plain-script fallback that resolves
// external requires through the globals map and publishes the package under
// its global name.
func (b *Build) umdBanner() string {
	lookup, err := json.Marshal(b.Globals)
	if err != nil {
		lookup = []byte("{}")
	}
	return fmt.Sprintf(`(function (global, factory) {
	if (typeof exports === 'object' && typeof module !== 'undefined') {
		factory(module, module.exports, require);
	} else if (typeof define === 'function' && define.amd) {
		define(['module', 'exports', 'require'], factory);
	} else {
		var globals = %s;
		var mod = { exports: {} };
		factory(mod, mod.exports, function (id) {
			return global[globals[id] || id];
		});
		global.%s = mod.exports;
	}
})(typeof globalThis !== 'undefined' ? globalThis : this || self, (function (module, exports, require) {
`, lookup, b.Name)
}
