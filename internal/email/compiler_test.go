package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopnotify/internal/types"
)

func TestCompileInterpolation(t *testing.T) {
	out, err := Compile("Salut {{customerName}}, comanda {{orderNumber}} este gata.", Context{
		"customerName": "Maria",
		"orderNumber":  "A1B2C3D4",
	})
	require.NoError(t, err)
	assert.Equal(t, "Salut Maria, comanda A1B2C3D4 este gata.", out)
}

func TestCompileMissingPlaceholderRendersEmpty(t *testing.T) {
	out, err := Compile("Salut {{customerName}}{{nonexistent}}!", Context{"customerName": "Ion"})
	require.NoError(t, err)
	assert.Equal(t, "Salut Ion!", out)
}

func TestCompileMalformedBlockIsConfigError(t *testing.T) {
	_, err := Compile("{{#each products}}{{name}}", Context{"products": []Context{}})
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeConfigTemplateMalformed, appErr.Code)
	assert.True(t, types.IsConfigError(err))
}

func TestCompileEachOverProducts(t *testing.T) {
	ctx := Context{
		"products": []Context{
			{"name": "Ceainic", "subtotal": "179.98"},
			{"name": "Ceai verde", "subtotal": "69.52"},
		},
	}
	out, err := Compile("{{#each products}}{{name}}: {{subtotal}}\n{{/each}}", ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ceainic: 179.98\nCeai verde: 69.52\n", out)
}

func TestCompileConditionalSections(t *testing.T) {
	src := "{{#if trackingNumber}}AWB {{trackingNumber}}{{else}}fără AWB{{/if}}"

	out, err := Compile(src, Context{"trackingNumber": "AWB1"})
	require.NoError(t, err)
	assert.Equal(t, "AWB AWB1", out)

	out, err = Compile(src, Context{})
	require.NoError(t, err)
	assert.Equal(t, "fără AWB", out)
}

func TestCompileIsDeterministic(t *testing.T) {
	ctx := Context{"customerName": "Maria", "orderTotal": "249.50"}
	src := "{{customerName}} / {{orderTotal}}"

	first, err := Compile(src, ctx)
	require.NoError(t, err)
	second, err := Compile(src, ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
