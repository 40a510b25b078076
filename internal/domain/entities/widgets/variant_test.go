package widgets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectVariant(t *testing.T) {
	assert.Equal(t, VariantBackoffice, SelectVariant(SurfaceConsole))
	assert.Equal(t, VariantPortal, SelectVariant(SurfacePortal))
	// Unknown surfaces degrade to the portal variant.
	assert.Equal(t, VariantPortal, SelectVariant(Surface("kiosk")))
}

func TestParamsFor(t *testing.T) {
	backoffice := ParamsFor(VariantBackoffice)
	assert.Contains(t, backoffice.MarkerClass, "backoffice")
	assert.True(t, backoffice.ShowsTooltip)

	portal := ParamsFor(VariantPortal)
	assert.Contains(t, portal.MarkerClass, "portal")
	assert.False(t, portal.ShowsTooltip)

	assert.NotEqual(t, backoffice.ChromeClass, portal.ChromeClass)
}

func TestObjectLifecycleContext_Validate(t *testing.T) {
	valid := ObjectLifecycleContext{
		ObjectClass:        "document",
		ObjectID:           "doc-1",
		StateAttributeCode: "status",
	}
	require.NoError(t, valid.Validate())

	missingClass := valid
	missingClass.ObjectClass = ""
	assert.Error(t, missingClass.Validate())

	missingID := valid
	missingID.ObjectID = ""
	assert.Error(t, missingID.Validate())

	missingCode := valid
	missingCode.StateAttributeCode = ""
	assert.Error(t, missingCode.Validate())
}

func TestObjectLifecycleContext_Key(t *testing.T) {
	ctx := ObjectLifecycleContext{ObjectClass: "document", ObjectID: "doc-1"}
	assert.Equal(t, "document:doc-1", ctx.Key())
}

func TestBindingSelector(t *testing.T) {
	ctx := ObjectLifecycleContext{
		ObjectClass:        "document",
		ObjectID:           "doc-1",
		StateAttributeCode: "status",
	}
	selector := BindingSelector(ctx)

	assert.Contains(t, selector, `data-object-class="document"`)
	assert.Contains(t, selector, `data-object-id="doc-1"`)
	assert.Contains(t, selector, `data-attribute-code="status"`)
	assert.Contains(t, selector, `data-attribute-flag-read-only="true"`)
}

func TestBindingSelector_QuotesIdentifiers(t *testing.T) {
	ctx := ObjectLifecycleContext{
		ObjectClass:        `doc"ument`,
		ObjectID:           "doc-1",
		StateAttributeCode: "status",
	}
	selector := BindingSelector(ctx)

	// %q escapes embedded quotes so the selector never breaks out of the
	// attribute value.
	assert.Contains(t, selector, `data-object-class="doc\"ument"`)
}
