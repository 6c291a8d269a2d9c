package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionsDataset() Dataset {
	return Dataset{
		Summary: []SummaryItem{{Label: "Total tutorias", Value: "2"}},
		Headers: []string{"Materia", "Tema", "Estado"},
		Rows: [][]string{
			{"Calculo", "Limites", "finalizada"},
			{"Fisica", "Ondas"},
		},
	}
}

func TestCSVRenderRowsFollowHeaderOrder(t *testing.T) {
	out, err := NewCSVExporter().Render(sessionsDataset())
	require.NoError(t, err)

	reader := csv.NewReader(bytes.NewReader(out))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 4)
	assert.Equal(t, []string{"Total tutorias", "2"}, records[0])
	assert.Equal(t, []string{"Materia", "Tema", "Estado"}, records[1])
	assert.Equal(t, []string{"Calculo", "Limites", "finalizada"}, records[2])
	// short rows pad out to the header width
	assert.Equal(t, []string{"Fisica", "Ondas", ""}, records[3])
}

func TestCSVRenderRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{Rows: [][]string{{"x"}}})
	require.Error(t, err)
}

func TestPDFRenderProducesDocument(t *testing.T) {
	out, err := NewPDFExporter().Render(sessionsDataset(), "Reporte de tutorias")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
