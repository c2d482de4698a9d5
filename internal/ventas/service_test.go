package ventas

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateComputesLineTotals(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)

	venta, err := svc.Create(context.Background(), "", Venta{
		CompanyID: tenant(1),
		Folio:     "F-001",
		Cliente:   "Comercial Andina",
		CreatedBy: 10,
		Items: []VentaItem{
			{ProductoID: 1, Cantidad: 3, PrecioUnitario: decimal.NewFromFloat(10.50)},
			{ProductoID: 2, Cantidad: 1, PrecioUnitario: decimal.NewFromInt(200)},
		},
	})
	require.NoError(t, err)
	assert.True(t, venta.Items[0].Subtotal.Equal(decimal.NewFromFloat(31.50)), "subtotal %s", venta.Items[0].Subtotal)
	assert.True(t, venta.Total.Equal(decimal.NewFromFloat(231.50)), "total %s", venta.Total)
}

func TestCreateRejectsEmptySale(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, nil)

	_, err := svc.Create(context.Background(), "", Venta{Folio: "F-001", Cliente: "X"})
	assert.ErrorIs(t, err, ErrNoItems)
}

func TestCreateRejectsInvalidLines(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, nil)

	cases := []struct {
		name string
		item VentaItem
	}{
		{"zero quantity", VentaItem{ProductoID: 1, Cantidad: 0, PrecioUnitario: decimal.NewFromInt(10)}},
		{"negative quantity", VentaItem{ProductoID: 1, Cantidad: -2, PrecioUnitario: decimal.NewFromInt(10)}},
		{"negative price", VentaItem{ProductoID: 1, Cantidad: 1, PrecioUnitario: decimal.NewFromInt(-10)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "", Venta{Folio: "F-001", Cliente: "X", Items: []VentaItem{tc.item}})
			assert.ErrorIs(t, err, ErrInvalidItem)
		})
	}
}

func TestUpdateRecomputesTotal(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)

	created, err := svc.Create(context.Background(), "", Venta{
		CompanyID: tenant(1), Folio: "F-001", Cliente: "X", CreatedBy: 10,
		Items: []VentaItem{{ProductoID: 1, Cantidad: 1, PrecioUnitario: decimal.NewFromInt(100)}},
	})
	require.NoError(t, err)

	created.Items = []VentaItem{{ProductoID: 1, Cantidad: 4, PrecioUnitario: decimal.NewFromInt(25)}}
	updated, err := svc.Update(context.Background(), 10, created)
	require.NoError(t, err)
	assert.True(t, updated.Total.Equal(decimal.NewFromInt(100)))
	assert.Len(t, updated.Items, 1)
	assert.EqualValues(t, 4, updated.Items[0].Cantidad)
}
