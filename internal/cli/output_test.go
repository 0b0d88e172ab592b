package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/apptrecon/internal/config"
	"github.com/roach88/apptrecon/internal/executor"
	"github.com/roach88/apptrecon/internal/queryir"
	"github.com/roach88/apptrecon/internal/store"
)

func TestOutputFormatter_JSONRender(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	err := formatter.Render("run-1", map[string]string{"result": "success"}, nil)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "run-1", resp.RunID)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_TextRender(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.Render("run-1", nil, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, "Total in window: 3")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "Total in window: 3\n", buf.String())
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error(ErrCodeFetch, "failed to fetch appointments", map[string]string{"table": "appointments"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeFetch, resp.Error.Code)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextErrorGoesToErrWriter(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: out, ErrWriter: errOut, Verbose: true}

	require.NoError(t, formatter.Error(ErrCodeConfig, "no dsn", map[string]string{"field": "store.dsn"}))
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "Error [CONFIG]: no dsn")
	assert.Contains(t, errOut.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}

			formatter.VerboseLog("Fetching %s", "appointments")

			if tt.wantLog {
				assert.Contains(t, buf.String(), "Fetching appointments")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "warnings")))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", WrapExitError(ExitCommandError, "x", errors.New("y")))))
	assert.Equal(t, ExitCommandError, GetExitCode(errors.New("unknown flag: --nope")))
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&config.ConfigurationError{Field: "store.dsn", Message: "missing"}, ErrCodeConfig},
		{store.NewFetchError("appointments", queryir.Query{}, errors.New("refused")), ErrCodeFetch},
		{executor.ErrNotConfirmed, ErrCodeNotConfirmed},
		{fmt.Errorf("x: %w", executor.ErrFingerprintMismatch), ErrCodeStalePlan},
		{&executor.DeletionError{Table: "appointments", Err: errors.New("timeout")}, ErrCodeDelete},
		{NewExitError(ExitFailure, "verification produced 2 warnings"), ErrCodeWarnings},
		{errors.New("other"), ErrCodeCommand},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}

	wrapped := WrapExitError(ExitCommandError, "failed to fetch appointments", store.NewFetchError("t", queryir.Query{}, errors.New("refused")))
	assert.Equal(t, ErrCodeFetch, ErrorCode(wrapped))
}
