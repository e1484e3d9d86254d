package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMedicationStatus(t *testing.T) {
	status, err := ParseMedicationStatus(" return_pending ")
	require.NoError(t, err)
	assert.Equal(t, MedicationStatusReturnPending, status)

	_, err = ParseMedicationStatus("GIVEN")
	assert.Error(t, err)
}

func TestMedicationItemUnmarshalRejectsUnknownStatus(t *testing.T) {
	var item MedicationItem
	err := json.Unmarshal([]byte(`{"id":"M1","visitId":"V1","status":"LOST"}`), &item)
	assert.Error(t, err)

	err = json.Unmarshal([]byte(`{"id":"M1","visitId":"V1","status":"missed"}`), &item)
	require.NoError(t, err)
	assert.Equal(t, MedicationStatusMissed, item.Status)
}
