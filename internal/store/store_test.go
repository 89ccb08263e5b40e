package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eduanalytics/schoolsmcp/config"
	"github.com/eduanalytics/schoolsmcp/internal/dataset"
)

func TestTableName(t *testing.T) {
	require.Equal(t, "schools_monterrey", TableName("schools_monterrey"))
	require.Equal(t, "schools_centro_de_trabajo__1_", TableName("Schools_Centro de Trabajo (1)"))
	require.Equal(t, "excel_2024", TableName("excel_2024"))
}

func TestNewUnconfiguredYieldsDisabled(t *testing.T) {
	st, err := New(config.StoreConfig{}, time.Second)
	require.NoError(t, err)
	require.False(t, st.Configured())

	require.ErrorIs(t, st.Probe(context.Background()), ErrNotConfigured)

	ds := dataset.Build([]string{"a"}, [][]string{{"1"}})
	_, err = st.UpsertRows(context.Background(), "x", ds)
	require.ErrorIs(t, err, ErrNotConfigured)

	require.NoError(t, st.Close())
}

func TestNewConfiguredOpensPool(t *testing.T) {
	cfg := config.StoreConfig{Host: "db.internal", Database: "schools", Username: "svc"}
	st, err := New(cfg, time.Second)
	require.NoError(t, err)
	require.True(t, st.Configured())
	// sql.Open is lazy; no connection is attempted until Probe or a query.
	require.NoError(t, st.Close())
}

func TestUpsertRowsRejectsEmptyDataset(t *testing.T) {
	st, err := New(config.StoreConfig{Host: "db.internal", Database: "schools", Username: "svc"}, time.Second)
	require.NoError(t, err)
	defer st.Close()

	_, err = st.UpsertRows(context.Background(), "x", dataset.Build(nil, nil))
	require.Error(t, err)
	require.Contains(t, err.Error(), "no columns")
}
