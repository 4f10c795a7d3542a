package catalog

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	parts     map[string]Part
	suppliers map[string][]SupplierLink
	liveLots  map[string]bool
	searched  []SearchFilter
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		parts:     map[string]Part{},
		suppliers: map[string][]SupplierLink{},
		liveLots:  map[string]bool{},
	}
}

func (r *fakeRepo) Search(ctx context.Context, f SearchFilter) ([]SearchRow, error) {
	r.searched = append(r.searched, f)
	return []SearchRow{}, nil
}

func (r *fakeRepo) Get(ctx context.Context, sku string) (PartDetail, error) {
	part, ok := r.parts[sku]
	if !ok {
		return PartDetail{}, ErrPartNotFound
	}
	return PartDetail{Part: part, Suppliers: r.suppliers[sku]}, nil
}

func (r *fakeRepo) Create(ctx context.Context, part Part, suppliers []SupplierLink) (Part, error) {
	if _, ok := r.parts[part.SKU]; ok {
		return Part{}, ErrDuplicateSKU
	}
	r.parts[part.SKU] = part
	r.suppliers[part.SKU] = suppliers
	return part, nil
}

func (r *fakeRepo) Update(ctx context.Context, sku string, update PartUpdate) error {
	part, ok := r.parts[sku]
	if !ok {
		return ErrPartNotFound
	}
	if update.Name != nil {
		part.Name = *update.Name
	}
	if update.Category != nil {
		part.Category = *update.Category
	}
	if update.DefaultSpec != nil {
		part.DefaultSpec = *update.DefaultSpec
	}
	if update.SpecDefinition != nil {
		part.SpecDefinition = *update.SpecDefinition
	}
	r.parts[sku] = part
	if update.Suppliers != nil {
		r.suppliers[sku] = update.Suppliers
	}
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, sku string) error {
	if _, ok := r.parts[sku]; !ok {
		return ErrPartNotFound
	}
	if r.liveLots[sku] {
		return ErrPartHasStock
	}
	delete(r.parts, sku)
	delete(r.suppliers, sku)
	return nil
}

func TestCreateRequiresIdentityFields(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, nil)

	_, err := svc.Create(context.Background(), Part{SKU: "X-1", Name: "x"}, nil, "tester")
	require.Error(t, err)

	_, err = svc.Create(context.Background(), Part{Category: "IC", Name: "x"}, nil, "tester")
	require.Error(t, err)
}

func TestCreateDefaultsUnit(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)

	created, err := svc.Create(context.Background(), Part{SKU: "R-100", Category: "Resistor", Name: "100 ohm"}, nil, "tester")
	require.NoError(t, err)
	require.Equal(t, "pcs", created.Unit)
}

func TestCreateDuplicateSKU(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)

	_, err := svc.Create(context.Background(), Part{SKU: "R-100", Category: "Resistor", Name: "a"}, nil, "tester")
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), Part{SKU: "R-100", Category: "Resistor", Name: "b"}, nil, "tester")
	require.ErrorIs(t, err, ErrDuplicateSKU)
}

func TestSpecDefinitionRoundTrip(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)

	spec := map[string]any{"v_ceo": "50V", "hfe": "120"}
	_, err := svc.Create(context.Background(), Part{SKU: "2SC-1815", Category: "Transistor", Name: "NPN", SpecDefinition: spec}, nil, "tester")
	require.NoError(t, err)

	detail, err := svc.Get(context.Background(), "2SC-1815")
	require.NoError(t, err)
	require.Equal(t, spec, detail.SpecDefinition)
}

func TestSpecDefinitionSerialization(t *testing.T) {
	spec := map[string]any{"v_ceo": "50V"}
	encoded, err := marshalSpec(spec)
	require.NoError(t, err)
	require.NotNil(t, encoded)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(*encoded), &decoded))
	require.Equal(t, spec, decoded)

	none, err := marshalSpec(nil)
	require.NoError(t, err)
	require.Nil(t, none)
}

func TestDeleteRefusedWhileStockRemains(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)

	_, err := svc.Create(context.Background(), Part{SKU: "W-22", Category: "Wire", Name: "22AWG"}, nil, "tester")
	require.NoError(t, err)
	repo.liveLots["W-22"] = true

	err = svc.Delete(context.Background(), "W-22", "tester")
	require.ErrorIs(t, err, ErrPartHasStock)

	repo.liveLots["W-22"] = false
	require.NoError(t, svc.Delete(context.Background(), "W-22", "tester"))
	_, err = svc.Get(context.Background(), "W-22")
	require.ErrorIs(t, err, ErrPartNotFound)
}

func TestUpdateReplacesSupplierSetOnlyWhenProvided(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)

	_, err := svc.Create(context.Background(), Part{SKU: "C-104", Category: "Capacitor", Name: "0.1uF"},
		[]SupplierLink{{SKU: "C-104", SupplierCode: "DK"}}, "tester")
	require.NoError(t, err)

	name := "0.1uF 50V"
	_, err = svc.Update(context.Background(), "C-104", PartUpdate{Name: &name}, "tester")
	require.NoError(t, err)
	require.Len(t, repo.suppliers["C-104"], 1)

	_, err = svc.Update(context.Background(), "C-104", PartUpdate{Suppliers: []SupplierLink{}}, "tester")
	require.NoError(t, err)
	require.Empty(t, repo.suppliers["C-104"])
}
