package resolve

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hoa-onboard/internal/model"
	"github.com/sells-group/hoa-onboard/internal/store"
)

// directory is an in-memory store.HOAStore.
type directory struct {
	hoas    []model.HOA
	listErr error
	calls   []string
}

func newDirectory(hoas ...model.HOA) *directory {
	for i := range hoas {
		if hoas[i].ID == 0 {
			hoas[i].ID = int64(i + 1)
		}
	}
	return &directory{hoas: hoas}
}

func (d *directory) FindHOAsByContactEmail(_ context.Context, email string) ([]model.HOA, error) {
	d.calls = append(d.calls, "email")
	var out []model.HOA
	for _, h := range d.hoas {
		if strings.EqualFold(h.ContactEmail, email) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (d *directory) FindHOAsByName(_ context.Context, name string) ([]model.HOA, error) {
	d.calls = append(d.calls, "name")
	var out []model.HOA
	for _, h := range d.hoas {
		if strings.EqualFold(h.Name, name) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (d *directory) ListHOAs(_ context.Context, _ store.PageFilter) ([]model.HOA, error) {
	d.calls = append(d.calls, "list")
	if d.listErr != nil {
		return nil, d.listErr
	}
	out := append([]model.HOA(nil), d.hoas...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func TestResolve_ByContactEmail(t *testing.T) {
	dir := newDirectory(
		model.HOA{Name: "Oak Ridge", ContactEmail: "board@oakridge.example"},
		model.HOA{Name: "Pine Hill", ContactEmail: "pine@example.com"},
	)
	r := NewResolver(dir)

	h, err := r.Resolve(context.Background(), "BOARD@OakRidge.example", "hello")
	require.NoError(t, err)
	assert.Equal(t, "Oak Ridge", h.Name)
	assert.Equal(t, []string{"email"}, dir.calls)
}

func TestResolve_ByContactEmail_DisplayName(t *testing.T) {
	dir := newDirectory(model.HOA{Name: "Oak Ridge", ContactEmail: "board@oakridge.example"})
	r := NewResolver(dir)

	h, err := r.Resolve(context.Background(), `"Oak Ridge Board" <board@oakridge.example>`, "")
	require.NoError(t, err)
	assert.Equal(t, "Oak Ridge", h.Name)
}

func TestResolve_AmbiguousEmailFallsThrough(t *testing.T) {
	dir := newDirectory(
		model.HOA{Name: "Oak Ridge", ContactEmail: "shared@example.com"},
		model.HOA{Name: "Pine Hill", ContactEmail: "shared@example.com"},
	)
	r := NewResolver(dir)

	h, err := r.Resolve(context.Background(), "shared@example.com",
		"Re: Property Management Information Request - Pine Hill")
	require.NoError(t, err)
	assert.Equal(t, "Pine Hill", h.Name)
	assert.Equal(t, []string{"email", "name"}, dir.calls)
}

func TestResolve_BySubjectName(t *testing.T) {
	dir := newDirectory(
		model.HOA{Name: "Oak Ridge", ContactEmail: "board@oakridge.example"},
		model.HOA{Name: "Lakes - North", ContactEmail: "north@example.com"},
	)
	r := NewResolver(dir)

	h, err := r.Resolve(context.Background(), "someone@else.example",
		"RE: Property Management Information Request - oak ridge  ")
	require.NoError(t, err)
	assert.Equal(t, "Oak Ridge", h.Name)
}

func TestResolve_SubjectSplitUsesLastSeparator(t *testing.T) {
	dir := newDirectory(model.HOA{Name: "North", ContactEmail: "north@example.com"})
	r := NewResolver(dir)

	h, err := r.Resolve(context.Background(), "x@example.com",
		"Property Management Information Request - Lakes - North")
	require.NoError(t, err)
	assert.Equal(t, "North", h.Name)
	assert.Equal(t, []string{"email", "name"}, dir.calls)
}

func TestResolve_SubstringFallback(t *testing.T) {
	dir := newDirectory(model.HOA{Name: "acme gardens hoa", ContactEmail: "acme@example.com"})
	r := NewResolver(dir)

	h, err := r.Resolve(context.Background(), "x@example.com", "Question about dues for Acme Gardens HOA residents")
	require.NoError(t, err)
	assert.Equal(t, "acme gardens hoa", h.Name)
	assert.Equal(t, []string{"email", "list"}, dir.calls)
}

func TestResolve_SubstringFallback_FirstByName(t *testing.T) {
	dir := newDirectory(
		model.HOA{ID: 1, Name: "Oak", ContactEmail: "a@example.com"},
		model.HOA{ID: 2, Name: "Glen", ContactEmail: "b@example.com"},
		model.HOA{ID: 3, Name: "", ContactEmail: "c@example.com"},
	)
	r := NewResolver(dir)

	h, err := r.Resolve(context.Background(), "x@example.com", "Oak Glen update")
	require.NoError(t, err)
	assert.Equal(t, int64(2), h.ID, "Glen sorts before Oak")
}

func TestResolve_NotFound(t *testing.T) {
	dir := newDirectory(model.HOA{Name: "Oak Ridge", ContactEmail: "board@oakridge.example"})
	r := NewResolver(dir)

	_, err := r.Resolve(context.Background(), "stranger@example.com", "Hello there")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrHOANotFound))
	assert.Contains(t, err.Error(), "stranger@example.com")
}

func TestResolve_StoreError(t *testing.T) {
	dir := newDirectory()
	dir.listErr = errors.New("db down")
	r := NewResolver(dir)

	_, err := r.Resolve(context.Background(), "x@example.com", "hi")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrHOANotFound))
	assert.Contains(t, err.Error(), "list hoas")
}

func TestNameFromSubject(t *testing.T) {
	name, ok := NameFromSubject("Re: Property Management Information Request - Oak Ridge")
	assert.True(t, ok)
	assert.Equal(t, "Oak Ridge", name)

	_, ok = NameFromSubject("Re: Dues - Oak Ridge")
	assert.False(t, ok, "marker required")

	_, ok = NameFromSubject("Property Management Information Request")
	assert.False(t, ok, "separator required")

	_, ok = NameFromSubject("Property Management Information Request -  ")
	assert.False(t, ok)
}

func TestAddress(t *testing.T) {
	assert.Equal(t, "jane@example.com", Address("Jane Doe <jane@example.com>"))
	assert.Equal(t, "jane@example.com", Address("  jane@example.com "))
	assert.Equal(t, "not an address", Address("not an address"))
}

func TestProperty_Resolve(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	build := func(n int) []model.HOA {
		hoas := make([]model.HOA, n)
		for i := range hoas {
			hoas[i] = model.HOA{
				ID:           int64(i + 1),
				Name:         fmt.Sprintf("Association %03d", i),
				ContactEmail: fmt.Sprintf("board%03d@example.com", i),
			}
		}
		return hoas
	}

	properties.Property("contact email resolves to its hoa in any case", prop.ForAll(
		func(n, pick int, upper bool) bool {
			hoas := build(n)
			target := hoas[pick%n]
			from := target.ContactEmail
			if upper {
				from = strings.ToUpper(from)
			}
			h, err := NewResolver(newDirectory(hoas...)).Resolve(context.Background(), from, "anything")
			return err == nil && h.ID == target.ID
		},
		gen.IntRange(1, 30),
		gen.IntRange(0, 1000),
		gen.Bool(),
	))

	properties.Property("onboarding subject resolves without an email match", prop.ForAll(
		func(n, pick int) bool {
			hoas := build(n)
			target := hoas[pick%n]
			subject := SubjectMarker + " - " + target.Name
			h, err := NewResolver(newDirectory(hoas...)).Resolve(context.Background(), "unknown@example.org", subject)
			return err == nil && h.ID == target.ID
		},
		gen.IntRange(1, 30),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}
