package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marovik/fleetopt/core/model"
)

const header = "vessel_id,vessel_type,dwt,safety_score,main_engine_fuel_type,total_fuel_tonnes,total_co2eq,fuel_cost_usd,carbon_cost_usd,ownership_cost_usd,risk_premium_usd,adjusted_cost_usd\n"

func TestLoad(t *testing.T) {
	data := header +
		"V1,Bulk Carrier,50000,4.2,HFO,1200,3700,600000,296000,250000,22920,1168920\n" +
		"V2,Tanker,82000,3.1,LNG,900,2500,540000,200000,310000,52500,1102500\n"
	vessels, err := Load(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, vessels, 2)

	v := vessels[0]
	assert.Equal(t, "V1", v.ID)
	assert.Equal(t, "Bulk Carrier", v.Type)
	assert.Equal(t, 50000.0, v.DWT)
	assert.Equal(t, 4.2, v.SafetyScore)
	assert.Equal(t, model.FuelHFO, v.FuelType)
	assert.Equal(t, 1168920.0, v.AdjustedCostUSD)
	assert.Equal(t, model.FuelLNG, vessels[1].FuelType)
}

func TestLoadRejectsDuplicateID(t *testing.T) {
	data := header +
		"V1,Bulk Carrier,50000,4.2,HFO,1200,3700,600000,296000,250000,22920,1168920\n" +
		"V1,Tanker,82000,3.1,LNG,900,2500,540000,200000,310000,52500,1102500\n"
	_, err := Load(strings.NewReader(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3")
	assert.Contains(t, err.Error(), "duplicate vessel id")
}

func TestLoadRejectsBadRows(t *testing.T) {
	cases := map[string]string{
		"non-positive dwt":  "V1,Bulk,0,4.2,HFO,1,1,1,1,1,1,1\n",
		"negative cost":     "V1,Bulk,50000,4.2,HFO,1,1,-5,1,1,1,1\n",
		"unknown fuel type": "V1,Bulk,50000,4.2,Coal,1,1,1,1,1,1,1\n",
		"empty id":          ",Bulk,50000,4.2,HFO,1,1,1,1,1,1,1\n",
		"unparsable float":  "V1,Bulk,abc,4.2,HFO,1,1,1,1,1,1,1\n",
	}
	for name, row := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(strings.NewReader(header + row))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "row 2")
		})
	}
}

func TestLoadRejectsWrongHeader(t *testing.T) {
	_, err := Load(strings.NewReader("vessel_id,dwt\nV1,50000\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header")
}

func TestLoadRejectsEmptyCatalog(t *testing.T) {
	_, err := Load(strings.NewReader(header))
	require.Error(t, err)
}
