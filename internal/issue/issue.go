// SPDX-License-Identifier: MIT

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
)

type Id int

const (
	ForgefileNotFoundId Id = iota + 1
	ForgefileParseErrorId
	EngineNotFoundId
	EngineInstallFailedId
	ContainerfileNotFoundId
	BuildFailedId
	TestsFailedId
	TaskFailedId
	ConfigLoadFailedId
	AccountNotApprovedId
	PermissionDeniedId
)

type MarkdownMsg string

type Issue struct {
	id    Id          // ID used to look up the issue
	mdMsg MarkdownMsg // Markdown text that will be rendered
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) Render(stylePath string) (string, error) {
	return render(string(i.mdMsg), stylePath)
}

var (
	render = glamour.Render

	forgefileNotFoundIssue = &Issue{
		id: ForgefileNotFoundId,
		mdMsg: `
# No forgefile found!

We searched for a forgefile but couldn't find one in the expected locations.

## Search locations (in order of precedence):
1. The path given via --file
2. Current directory (forgefile.cue)

## Things you can try:
- Create a forgefile in your current directory:
~~~
$ forgeci init
~~~

- Or point at an existing one:
~~~
$ forgeci run --file ci/forgefile.cue
~~~`,
	}

	forgefileParseErrorIssue = &Issue{
		id: ForgefileParseErrorId,
		mdMsg: `
# Failed to parse forgefile!

Your forgefile contains syntax errors or invalid configuration.

## Common issues:
- Invalid CUE syntax (missing quotes, braces, etc.)
- Unknown field names
- Missing required fields (name, image.tag, test.command)
- Duplicate task names

## Things you can try:
- Check the error message above for the specific field path
- Validate without running:
~~~
$ forgeci validate
~~~

## Example of a minimal forgefile:
~~~cue
name: "myproj"

image: {
	tag: "myproj-worker:dev"
}

test: {
	command: "make check"
}
~~~`,
	}

	engineNotFoundIssue = &Issue{
		id: EngineNotFoundId,
		mdMsg: `
# Container engine not found!

The pipeline needs a container engine but none is available.

## Supported container engines:
- **Podman** (preferred; rootless)
- **Docker**

## Things you can try:
- Let forgeci install one for you (uses the system package manager, needs sudo):
~~~
$ forgeci install
~~~

- Install Podman yourself:
  - Fedora: ` + "`sudo dnf install podman`" + `
  - Debian/Ubuntu: ` + "`sudo apt-get install podman`" + `
  - macOS: ` + "`brew install podman`" + `

- Configure your preferred engine in the forgeci config:
~~~cue
container_engine: "podman"  // or "docker"
~~~`,
	}

	engineInstallFailedIssue = &Issue{
		id: EngineInstallFailedId,
		mdMsg: `
# Container engine installation failed!

forgeci tried to install a container engine with the system package manager
but the installation did not succeed.

## Common causes:
- sudo requires a password (forgeci uses non-interactive ` + "`sudo -n`" + `)
- No supported package manager found (dnf, apt-get, apk, zypper, brew)
- Network or repository problems

## Things you can try:
- Install the engine manually and re-run with --skip-install
- Configure passwordless sudo for package installation
- Check the package manager output above for details`,
	}

	containerfileNotFoundIssue = &Issue{
		id: ContainerfileNotFoundId,
		mdMsg: `
# Containerfile not found!

The build stage needs a Containerfile to build the worker image.

## Things you can try:
- Create a Containerfile in your project directory:
~~~dockerfile
FROM fedora:41
RUN dnf install -y make
WORKDIR /workspace
~~~

- Or point the forgefile at it:
~~~cue
image: {
	tag: "myproj-worker:dev"
	containerfile: "files/Containerfile"
}
~~~`,
	}

	buildFailedIssue = &Issue{
		id: BuildFailedId,
		mdMsg: `
# Worker image build failed!

The container engine reported a build failure.

## Things you can try:
- Check the build output above for the failing instruction
- Re-run with --no-cache to rule out stale layers:
~~~
$ forgeci build --no-cache
~~~
- Build manually to reproduce:
~~~
$ podman build -f Containerfile .
~~~`,
	}

	testsFailedIssue = &Issue{
		id: TestsFailedId,
		mdMsg: `
# Test suite failed!

The containerized test command exited with a non-zero status.

## Things you can try:
- Check the test output above for failing cases
- Re-run only the test stage (skips install and build):
~~~
$ forgeci test
~~~
- Run the test command manually inside the worker image:
~~~
$ podman run --rm -it <image> /bin/sh
~~~`,
	}

	taskFailedIssue = &Issue{
		id: TaskFailedId,
		mdMsg: `
# Playbook task failed!

One of the extra shell tasks in your forgefile exited with a non-zero status.

## Things you can try:
- Check the task output above
- Test the shell snippet manually
- For tasks with ` + "`become: true`" + `, make sure passwordless sudo is available`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the forgeci configuration file.

## Configuration file locations:
- Linux: ~/.config/forgeci/config.cue
- macOS: ~/Library/Application Support/forgeci/config.cue
- Windows: %APPDATA%\forgeci\config.cue

## Things you can try:
- Create a default configuration:
~~~
$ forgeci config init
~~~
- Check the configuration syntax
- Remove the config file to use defaults

## Example configuration:
~~~cue
container_engine: "podman"

ui: {
	color_scheme: "auto"
	verbose: false
}
~~~`,
	}

	accountNotApprovedIssue = &Issue{
		id: AccountNotApprovedId,
		mdMsg: `
# Account not approved!

The account that triggered this run is not on the allowlist.

## Things you can try:
- See which accounts are waiting for approval:
~~~
$ forgeci allowlist waiting
~~~
- Approve the account (maintainers only):
~~~
$ forgeci allowlist approve <account>
~~~`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

You don't have permission to perform this operation.

## Common causes:
- The container engine socket requires group membership
- Package installation needs sudo
- The project directory is not writable

## Things you can try:
- For containers, ensure you're in the docker/podman group:
~~~
$ sudo usermod -aG docker $USER
~~~
- Use rootless containers with Podman
- Run forgeci from a directory you own`,
	}

	issues = map[Id]*Issue{
		forgefileNotFoundIssue.Id():    forgefileNotFoundIssue,
		forgefileParseErrorIssue.Id():  forgefileParseErrorIssue,
		engineNotFoundIssue.Id():       engineNotFoundIssue,
		engineInstallFailedIssue.Id():  engineInstallFailedIssue,
		containerfileNotFoundIssue.Id(): containerfileNotFoundIssue,
		buildFailedIssue.Id():          buildFailedIssue,
		testsFailedIssue.Id():          testsFailedIssue,
		taskFailedIssue.Id():           taskFailedIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		accountNotApprovedIssue.Id():   accountNotApprovedIssue,
		permissionDeniedIssue.Id():     permissionDeniedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
