package newsletter

import (
	"errors"
	"os/exec"
	"testing"
)

func TestMarkupRenderer(t *testing.T) {
	got, err := MarkupRenderer{}.Render(t.Context(), "<mjml></mjml>")
	if err != nil {
		t.Fatal(err)
	}
	if got != "<mjml></mjml>" {
		t.Errorf("Render() = %q", got)
	}
}

func TestExecRenderer(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}
	programs := NewRegistry[string]()
	r := NewExecRenderer("cat", []string{}, programs, nil)
	got, err := r.Render(t.Context(), "<mjml><mj-body></mj-body></mjml>")
	if err != nil {
		t.Fatal(err)
	}
	if want := "<mjml><mj-body></mj-body></mjml>"; got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
	if !programs.Loaded("cat") {
		t.Error("program lookup was not registered")
	}
}

func TestExecRendererFailures(t *testing.T) {
	r := NewExecRenderer("newsletter-no-such-renderer", nil, nil, nil)
	if _, err := r.Render(t.Context(), "<mjml/>"); !errors.Is(err, ErrRender) {
		t.Errorf("Render() error = %v, want ErrRender", err)
	}

	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}
	r = NewExecRenderer("false", []string{}, nil, nil)
	if _, err := r.Render(t.Context(), "<mjml/>"); !errors.Is(err, ErrRender) {
		t.Errorf("Render() error = %v, want ErrRender", err)
	}
}

func TestExecRendererDefaults(t *testing.T) {
	r := NewExecRenderer("", nil, nil, nil)
	if r.Command != "mjml" {
		t.Errorf("Command = %q, want mjml", r.Command)
	}
	if len(r.Args) != len(DefaultRendererArgs) {
		t.Errorf("Args = %q, want %q", r.Args, DefaultRendererArgs)
	}
}
