package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	csvimport "github.com/investorcrm/backend/internal/infrastructure/import"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "crmctl", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"seed", "import-linkedin", "match", "purge", "reindex"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)
}

func TestInvalidFormatIsRejected(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "yaml", "purge"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestWorkspaceFlagsAreRequired(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"import-linkedin", "connections.csv"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workspace")
}

func TestPurgeRejectsNonPositiveRetention(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"purge", "--retention", "0s"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retention")
}

func TestGenerateSeed(t *testing.T) {
	data := generateSeed(gofakeit.New(42), "Acme Robotics", 8, 40)

	assert.Equal(t, "Acme Robotics", data.Company)
	require.Len(t, data.Investors, 8)

	firms := map[string]bool{}
	for _, inv := range data.Investors {
		key := strings.ToLower(inv.Investor.FirmName)
		assert.False(t, firms[key], "firm names are unique")
		firms[key] = true
		assert.NotEmpty(t, inv.Contacts)
		assert.True(t, inv.Contacts[0].IsPrimary)
		require.NotNil(t, inv.Investor.CheckSizeMin)
		require.NotNil(t, inv.Investor.CheckSizeMax)
		assert.True(t, inv.Investor.CheckSizeMax.GreaterThan(*inv.Investor.CheckSizeMin))
	}

	parsed, err := csvimport.ParseConnections(bytes.NewReader(data.Connections), csvimport.ConnectionsOptions{})
	require.NoError(t, err)
	assert.Len(t, parsed.Connections, 40)
	assert.Empty(t, parsed.Errors)

	atFirms := 0
	for _, c := range parsed.Connections {
		if firms[strings.ToLower(c.Company)] {
			atFirms++
		}
	}
	assert.GreaterOrEqual(t, atFirms, 10)
}

func TestGenerateSeed_IsReproducible(t *testing.T) {
	a := generateSeed(gofakeit.New(7), "", 3, 5)
	b := generateSeed(gofakeit.New(7), "", 3, 5)
	assert.Equal(t, a.Company, b.Company)
	assert.Equal(t, a.Connections, b.Connections)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "okonventures", slug("O'Kon Ventures"))
	assert.Equal(t, "a1", slug("A-1"))
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, "text", map[string]any{"b": 2, "a": 1}))
	assert.Equal(t, "a: 1\nb: 2\n", buf.String())

	buf.Reset()
	require.NoError(t, printResult(&buf, "json", map[string]any{"documents": 3}))
	var decoded map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 3, decoded["documents"])
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}
