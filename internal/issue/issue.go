// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const (
	ConfigLoadFailedId Id = iota + 1
	StateDirUnavailableId
	UnknownCommandId
	AmbiguousCommandId
	EmptyCommandLineId
	OutsideSandboxId
	BatchRecordUnreadableId
	ServerStartFailedId
)

type (
	Id int

	MarkdownMsg string

	HttpLink string

	Issue struct {
		id       Id          // ID used to lookup the issue
		mdMsg    MarkdownMsg // Markdown text that will be rendered
		docLinks []HttpLink
		extLinks []HttpLink // external links that might be useful for the user
	}
)

const vosManualLink HttpLink = "https://stratadoc.stratus.com/vos/19.3.0/r098-22/wwhelp/wwhimpl/js/html/wwhelp.htm"

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
		extraMd += "## See also\n"
		for _, link := range i.docLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Your config.cue contains syntax errors or values outside the schema.

## Things you can try:
- Print the effective configuration:
~~~
$ vosemu config show
~~~
- Regenerate a default file:
~~~
$ vosemu config init
~~~`,
	}

	stateDirUnavailableIssue = &Issue{
		id: StateDirUnavailableId,
		mdMsg: `
# State directory unavailable!

The emulator keeps its sandbox and batch queues under a state directory
(default ` + "`./vos_state`" + `) and could not create it.

## Things you can try:
- Choose another location:
~~~
$ vosemu --state-dir /tmp/vos_state shell
~~~
- Or set ` + "`state_dir`" + ` in your config.cue`,
	}

	unknownCommandIssue = &Issue{
		id: UnknownCommandId,
		mdMsg: `
# Unknown command!

No registered command matches what you typed, even as a prefix or glob.

## Things you can try:
- List all commands:
~~~
$ vosemu commands
~~~
- Use a glob to narrow the search, e.g. ` + "`display_*status`",
		extLinks: []HttpLink{vosManualLink},
	}

	ambiguousCommandIssue = &Issue{
		id: AmbiguousCommandId,
		mdMsg: `
# Ambiguous command!

More than one command starts with or matches what you typed.

## Things you can try:
- Type more of the name until only one candidate remains
- Use the full name shown by ` + "`vosemu commands`",
	}

	emptyCommandLineIssue = &Issue{
		id: EmptyCommandLineId,
		mdMsg: `
# Nothing to run!

The command line was empty after trimming whitespace.

## Things you can try:
~~~
$ vosemu run display_current_dir
~~~`,
	}

	outsideSandboxIssue = &Issue{
		id: OutsideSandboxId,
		mdMsg: `
# Directory is outside the sandbox!

` + "`change_current_dir`" + ` only moves within the emulator's filesystem root.

## Things you can try:
- Use a sandbox-absolute path such as ` + "`>Sales>Jones`" + `
- Check the current location with ` + "`display_current_dir`",
	}

	batchRecordUnreadableIssue = &Issue{
		id: BatchRecordUnreadableId,
		mdMsg: `
# Batch record unreadable!

A ` + "`.job`" + ` file in a queue directory could not be decoded. It is listed
with status ` + "`unreadable`" + ` and is never rewritten by updates.

## Things you can try:
- Inspect the file under ` + "`vos_internals/batches/<queue>/`" + `
- Remove it with ` + "`cancel_batch_requests <name>`",
	}

	serverStartFailedIssue = &Issue{
		id: ServerStartFailedId,
		mdMsg: `
# SSH server failed to start!

## Things you can try:
- Pick a free port:
~~~
$ vosemu serve --port 2222
~~~
- Bind to loopback only with ` + "`--host 127.0.0.1`",
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():      configLoadFailedIssue,
		stateDirUnavailableIssue.Id():   stateDirUnavailableIssue,
		unknownCommandIssue.Id():        unknownCommandIssue,
		ambiguousCommandIssue.Id():      ambiguousCommandIssue,
		emptyCommandLineIssue.Id():      emptyCommandLineIssue,
		outsideSandboxIssue.Id():        outsideSandboxIssue,
		batchRecordUnreadableIssue.Id(): batchRecordUnreadableIssue,
		serverStartFailedIssue.Id():     serverStartFailedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
