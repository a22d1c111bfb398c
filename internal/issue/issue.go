// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ConfigNotFoundId Id = iota + 1
	ConfigParseFailedId
	ToolConfigLoadFailedId
	CompilerNotFoundId
	CompilationFailedId
	CopyFailedId
	ManifestWriteFailedId
	ManifestReadFailedId
	PackageMetadataId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also:\n"
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "](" + string(link) + ")\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "](" + string(link) + ")\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	configNotFoundIssue = &Issue{
		id: ConfigNotFoundId,
		mdMsg: `
# No tsconfig.json found!

We searched the project directory and every parent directory for a
` + "`tsconfig.json`" + ` but found none.

## Things you can try:
- Run the command from the root of your TypeScript project
- Point at the project explicitly:
~~~
$ ts-precompile --project path/to/addon precompile
~~~
- Create a minimal configuration:
~~~json
{
  "compilerOptions": {
    "baseUrl": ".",
    "paths": { "my-addon/*": ["addon/*"] }
  }
}
~~~`,
		extLinks: []HttpLink{"https://www.typescriptlang.org/tsconfig"},
	}

	configParseFailedIssue = &Issue{
		id: ConfigParseFailedId,
		mdMsg: `
# Failed to read tsconfig.json!

The TypeScript configuration (or one of the files it ` + "`extends`" + `) could not be parsed.

## Common issues:
- An ` + "`extends`" + ` entry points at a file that does not exist
- Two configurations extend each other
- ` + "`compilerOptions.paths`" + ` values are not arrays of strings

## Things you can try:
- Run ` + "`npx tsc --showConfig`" + ` to see how TypeScript reads the file
- Re-run with ` + "`--verbose`" + ` for the full error chain`,
		extLinks: []HttpLink{"https://www.typescriptlang.org/tsconfig#extends"},
	}

	toolConfigLoadFailedIssue = &Issue{
		id: ToolConfigLoadFailedId,
		mdMsg: `
# Failed to load ts-precompile configuration!

The optional ` + "`ts-precompile.cue`" + ` / ` + "`ts-precompile.toml`" + ` file is invalid.

## Things you can try:
- Check the file against the documented keys:
~~~cue
manifest_path: "dist/.ts-precompile-manifest"
compiler: {
	command:     "tsc"
	min_version: "2.8.0"
}
addon: name: "my-addon"
~~~
- Show the effective configuration:
~~~
$ ts-precompile config show
~~~`,
	}

	compilerNotFoundIssue = &Issue{
		id: CompilerNotFoundId,
		mdMsg: `
# TypeScript compiler not found!

Neither ` + "`node_modules/.bin/tsc`" + ` nor a ` + "`tsc`" + ` on your PATH could be found.

## Things you can try:
- Install TypeScript in the project:
~~~
$ npm install --save-dev typescript
~~~
- Configure a custom compiler command in ` + "`ts-precompile.cue`" + `:
~~~cue
compiler: command: "npx tsc"
~~~`,
		extLinks: []HttpLink{"https://www.npmjs.com/package/typescript"},
	}

	compilationFailedIssue = &Issue{
		id: CompilationFailedId,
		mdMsg: `
# Declaration emit failed!

` + "`tsc`" + ` exited with a non-zero status. Its full output is printed above.
No declaration files were copied and no manifest was written.

## Things you can try:
- Fix the reported type errors and run again
- Reproduce with ` + "`npx tsc --emitDeclarationOnly --declaration`" + ``,
	}

	copyFailedIssue = &Issue{
		id: CopyFailedId,
		mdMsg: `
# Failed to copy a declaration file!

A matched ` + "`.d.ts`" + ` file could not be copied into the package's declaration tree.
The run was aborted; a partial declaration tree is never published.

## Things you can try:
- Check permissions on the project directory
- Remove leftovers from a previous run:
~~~
$ ts-precompile clean
~~~`,
	}

	manifestWriteFailedIssue = &Issue{
		id: ManifestWriteFailedId,
		mdMsg: `
# Failed to write the precompile manifest!

The declaration files were copied, but the list of created files could not be saved.
Without it ` + "`ts-precompile clean`" + ` cannot remove them.

## Things you can try:
- Check that the manifest directory is writable
- Choose another location with ` + "`--manifest-path`" + ``,
	}

	manifestReadFailedIssue = &Issue{
		id: ManifestReadFailedId,
		mdMsg: `
# Failed to read the precompile manifest!

## Things you can try:
- Run ` + "`ts-precompile precompile`" + ` first
- Pass the same ` + "`--manifest-path`" + ` that was used to create it`,
	}

	packageMetadataIssue = &Issue{
		id: PackageMetadataId,
		mdMsg: `
# Could not determine the package name!

The effective package name comes from the ` + "`name`" + ` field of ` + "`package.json`" + `
(or from the addon's own name when it differs).

## Things you can try:
- Make sure ` + "`package.json`" + ` exists at the project root and has a ` + "`name`" + `
- Override the addon name:
~~~cue
addon: name: "my-addon"
~~~`,
	}

	issues = map[Id]*Issue{
		configNotFoundIssue.Id():       configNotFoundIssue,
		configParseFailedIssue.Id():    configParseFailedIssue,
		toolConfigLoadFailedIssue.Id(): toolConfigLoadFailedIssue,
		compilerNotFoundIssue.Id():     compilerNotFoundIssue,
		compilationFailedIssue.Id():    compilationFailedIssue,
		copyFailedIssue.Id():           copyFailedIssue,
		manifestWriteFailedIssue.Id():  manifestWriteFailedIssue,
		manifestReadFailedIssue.Id():   manifestReadFailedIssue,
		packageMetadataIssue.Id():      packageMetadataIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
