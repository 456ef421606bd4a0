// Package fakerie is a stand-in for aws-lambda-rie used by tests.
//
// Test binaries call Main from TestMain and pass their own executable as the
// emulator binary. When the process is started with EnvVar set, Main takes
// over and behaves like a minimal emulator: it listens on --listen, writes a
// line to stderr once listening, and answers invocation requests.
//
// Events control the response:
//
//	{"fail": true}        500 Internal Server Error
//	{"count": true}       {"request": <n>} where n counts requests served
//	{"inspect": "NAME"}   arguments received and the value of $NAME
//	anything else         {"ok": true}
package fakerie

import (
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"time"
)

const (
	// EnvVar switches a test binary into emulator mode.
	EnvVar = "RIE_RUNNER_FAKE_EMULATOR"

	// TriggerFileEnv names a file; stderr output is held back until it exists.
	TriggerFileEnv = "FAKE_RIE_TRIGGER_FILE"

	// SilentEnv suppresses all stderr output.
	SilentEnv = "FAKE_RIE_SILENT"

	invocationPath = "/2015-03-31/functions/function/invocations"
)

// Main runs the fake emulator and exits if EnvVar is set; otherwise it returns.
func Main() {
	if os.Getenv(EnvVar) != "1" {
		return
	}

	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "fake emulator:", err)
		os.Exit(1)
	}

	os.Exit(0)
}

// Env returns environment overrides that start the fake emulator, merged with extra.
func Env(extra map[string]string) map[string]string {
	env := map[string]string{EnvVar: "1"}
	for key, value := range extra {
		env[key] = value
	}

	return env
}

// Binary returns the path of the running test binary.
func Binary() (string, error) {
	return os.Executable()
}

// Inspection is the response to an inspect event.
type Inspection struct {
	Bootstrap string `json:"bootstrap"`
	Listen    string `json:"listen"`
	RapidPort int    `json:"rapid_port"`
	Env       string `json:"env"`
}

func run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing bootstrap argument")
	}

	bootstrap := args[0]

	fs := flag.NewFlagSet("aws-lambda-rie", flag.ContinueOnError)
	listen := fs.String("listen", "", "listen address")
	rapidPort := fs.Int("rapid-port", 0, "runtime API port")

	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", *listen)
	if err != nil {
		return err
	}

	if trigger := os.Getenv(TriggerFileEnv); trigger != "" {
		for {
			if _, err := os.Stat(trigger); err == nil {
				break
			}

			time.Sleep(10 * time.Millisecond)
		}
	}

	fmt.Fprintln(os.Stdout, "fake emulator stdout")

	if os.Getenv(SilentEnv) == "" {
		fmt.Fprintf(os.Stderr, "START RAPID listen=%s rapid-port=%d\n", *listen, *rapidPort)
	}

	var served atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+invocationPath, func(w http.ResponseWriter, r *http.Request) {
		n := served.Add(1)

		var event map[string]any
		_ = json.NewDecoder(r.Body).Decode(&event)

		w.Header().Set("Content-Type", "application/json")

		switch {
		case event["fail"] == true:
			w.WriteHeader(http.StatusInternalServerError)
		case event["count"] == true:
			_ = json.NewEncoder(w).Encode(map[string]any{"request": n})
		case event["inspect"] != nil:
			name, _ := event["inspect"].(string)
			_ = json.NewEncoder(w).Encode(Inspection{
				Bootstrap: bootstrap,
				Listen:    *listen,
				RapidPort: *rapidPort,
				Env:       os.Getenv(name),
			})
		default:
			_, _ = w.Write([]byte(`{"ok":true}`))
		}
	})

	return http.Serve(ln, mux)
}
