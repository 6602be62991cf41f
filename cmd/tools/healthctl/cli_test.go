package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/zhouzirui/healthdesk/internal/model/assistant"
	"github.com/zhouzirui/healthdesk/internal/model/chat"
	"github.com/zhouzirui/healthdesk/internal/nutrition"
	"github.com/zhouzirui/healthdesk/internal/validation"
)

func testCmd(input string) (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	return cmd, &out
}

func TestChatCmd(t *testing.T) {
	logger = zap.NewNop()
	timeout = time.Second

	var (
		mu       sync.Mutex
		requests []chat.Request
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chat.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		requests = append(requests, req)
		mu.Unlock()
		_, _ = w.Write([]byte(`{"response":"Please rest and hydrate."}`))
	}))
	defer srv.Close()

	chatBaseURL = srv.URL
	chatProfileID = assistant.DefaultProfileID
	chatPolicy = "queue"
	defer func() { chatBaseURL = "" }()

	cmd, out := testCmd("I have a fever\n/reset\n/quick 2\n/quit\nignored\n")
	require.NoError(t, runChat(cmd, nil))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, requests, 2)
	assert.Equal(t, "I have a fever", requests[0].Message)
	assert.Equal(t, "I have a headache", requests[1].Message)
	assert.Len(t, requests[1].History, 1, "reset leaves only the greeting")

	text := out.String()
	assert.Contains(t, text, "Please rest and hydrate.")
	assert.Contains(t, text, "--- new conversation ---")
	assert.NotContains(t, text, "ignored")
}

func TestChatCmdUnknownProfile(t *testing.T) {
	logger = zap.NewNop()
	chatProfileID = "nobody"
	defer func() { chatProfileID = assistant.DefaultProfileID }()

	cmd, _ := testCmd("")
	assert.Error(t, runChat(cmd, nil))
}

func TestEstimateCmd(t *testing.T) {
	estAge, estSex, estWeight, estHeight, estActivity = "25", "male", "70", "175", nutrition.Sedentary
	estOut = ""

	cmd, out := testCmd("")
	require.NoError(t, runEstimate(cmd, nil))
	assert.Equal(t, "Estimated Daily Needs: 2009 calories, 70g protein\n", out.String())
}

func TestEstimateCmdExport(t *testing.T) {
	estAge, estSex, estWeight, estHeight, estActivity = "25", "male", "70", "175", nutrition.Sedentary
	estBudget, estDiet, estPantry = "250", "vegetarian", []string{"rice"}
	estOut = filepath.Join(t.TempDir(), "plan.xlsx")
	defer func() { estOut = "" }()

	cmd, _ := testCmd("")
	require.NoError(t, runEstimate(cmd, nil))

	raw, err := os.ReadFile(estOut)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()
	protein, err := f.GetCellValue(nutrition.PlanSheet, "B12")
	require.NoError(t, err)
	assert.Equal(t, "70", protein)
}

func TestEstimateCmdIncomplete(t *testing.T) {
	estAge, estSex, estWeight, estHeight, estActivity = "25", "", "70", "175", nutrition.Sedentary
	estOut = ""

	cmd, _ := testCmd("")
	assert.Error(t, runEstimate(cmd, nil))
}

func TestValidateFieldCmd(t *testing.T) {
	cmd, out := testCmd("")
	assert.ErrorIs(t, runValidateField(cmd, []string{"budget", "5"}), errInvalid)
	assert.Contains(t, out.String(), validation.MsgBudgetLow)

	cmd, out = testCmd("")
	require.NoError(t, runValidateField(cmd, []string{"age", "30"}))
	assert.Equal(t, "age: ok\n", out.String())
}

func TestValidateFormCmd(t *testing.T) {
	logger = zap.NewNop()

	cmd, out := testCmd("")
	require.NoError(t, runValidateForm(cmd, []string{"signin", "email=a@b.co", "password=secret"}))
	assert.Equal(t, "ok\n", out.String())

	cmd, out = testCmd("")
	err := runValidateForm(cmd, []string{"meal-plan", "age=0", "sex=female"})
	assert.ErrorIs(t, err, errInvalid)
	assert.Contains(t, out.String(), "focus: age")

	cmd, _ = testCmd("")
	assert.Error(t, runValidateForm(cmd, []string{"signin", "broken"}))
}
