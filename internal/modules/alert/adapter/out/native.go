package out

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"pomodoro/internal/modules/alert/domain"
	"pomodoro/internal/platform/bus"
)

const EventNativeAlert = "showNativeAlert"

// NativeChannel raises an OS-level alert. With no command configured it uses
// notify-send or osascript when present, and otherwise asks the UI to show a
// blocking alert.
type NativeChannel struct {
	command   []string
	publisher bus.Publisher
	run       func(ctx context.Context, name string, args ...string) error
	lookPath  func(string) (string, error)
}

func NewNativeChannel(command string, publisher bus.Publisher) *NativeChannel {
	return &NativeChannel{
		command:   strings.Fields(command),
		publisher: publisher,
		run:       runCommand,
		lookPath:  exec.LookPath,
	}
}

func (n *NativeChannel) Name() string { return domain.ChannelNative }

func (n *NativeChannel) Fire(ctx context.Context, alert domain.Alert, _ domain.Options) error {
	title, message := alert.Title(), alert.Message()
	name, args, ok := n.resolve(title, message)
	if !ok {
		return publish(n.publisher, EventNativeAlert, map[string]string{"title": title, "message": message})
	}
	if err := n.run(ctx, name, args...); err != nil {
		return fmt.Errorf("native alert: %w", err)
	}
	return nil
}

func (n *NativeChannel) resolve(title, message string) (string, []string, bool) {
	if len(n.command) > 0 {
		return n.command[0], append(append([]string(nil), n.command[1:]...), title, message), true
	}
	switch runtime.GOOS {
	case "darwin":
		if _, err := n.lookPath("osascript"); err == nil {
			script := fmt.Sprintf("display alert %q message %q", title, message)
			return "osascript", []string{"-e", script}, true
		}
	case "linux":
		if _, err := n.lookPath("notify-send"); err == nil {
			return "notify-send", []string{"--urgency=critical", title, message}, true
		}
	}
	return "", nil, false
}

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}
