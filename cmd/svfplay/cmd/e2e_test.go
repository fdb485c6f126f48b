package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSVF(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "program.svf")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// execute resets the per-test flag state, runs the root command with
// args and returns the captured stdout together with the command error.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	// Read in background to prevent pipe buffer from blocking on Windows
	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		buf.ReadFrom(r)
		close(done)
	}()

	// Reset flags to prevent accumulation between tests
	verbose = false
	runCable = ""
	runSpeed = 0
	runBatch = 0
	runCfgPath = ""
	runReset = false

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	w.Close()
	os.Stdout = old
	<-done

	return buf.String(), err
}

const goodProgram = `! Load an instruction, then verify a data register.
ENDIR IDLE;
ENDDR IDLE;
SIR 8 TDI(AA) SMASK(FF);
SDR 16 TDI(0F0F) TDO(0F0F) MASK(FFFF);
RUNTEST 25 TCK;
STATE RESET;
TRST OFF;
`

func TestParseE2E(t *testing.T) {
	path := writeSVF(t, goodProgram)

	output, err := execute(t, "parse", path)
	if err != nil {
		t.Fatalf("Unexpected error: %v\nOutput: %s", err, output)
	}

	for _, want := range []string{
		"SIR 8 TDI(AA) SMASK(FF)",
		"SDR 16 TDI(0F0F) TDO(0F0F) MASK(FFFF)",
		"RUNTEST 25 TCK",
		"STATE RESET",
		"TRST OFF",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing expected string: %q\nGot:\n%s", want, output)
		}
	}
}

func TestParseE2EBadFile(t *testing.T) {
	path := writeSVF(t, "SIR 8 TDI(AA)\n") // missing semicolon

	if _, err := execute(t, "parse", path); err == nil {
		t.Error("Expected error but got none")
	}
}

func TestRunE2ESimulator(t *testing.T) {
	path := writeSVF(t, goodProgram)

	output, err := execute(t, "run", "--cable", "simulator", path)
	if err != nil {
		t.Fatalf("Unexpected error: %v\nOutput: %s", err, output)
	}
}

func TestRunE2ETargetReset(t *testing.T) {
	path := writeSVF(t, goodProgram)

	output, err := execute(t, "run", "--cable", "simulator", "--reset", path)
	if err != nil {
		t.Fatalf("Unexpected error: %v\nOutput: %s", err, output)
	}
}

func TestRunE2EUnsupportedCommand(t *testing.T) {
	path := writeSVF(t, "TRST ON;\n")

	_, err := execute(t, "run", "--cable", "simulator", path)
	if err == nil {
		t.Fatal("Expected error but got none")
	}
	if !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("Error should mention the unsupported feature, got: %v", err)
	}
}

func TestRunE2EUnknownCable(t *testing.T) {
	path := writeSVF(t, goodProgram)

	if _, err := execute(t, "run", "--cable", "ftdi", path); err == nil {
		t.Error("Expected error but got none")
	}
}
