package extraction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarsh/bidflow/internal/llm"
	"github.com/dmarsh/bidflow/internal/types"
)

// scriptedClient replays canned responses in call order and records every
// prompt it sees.
type scriptedClient struct {
	responses []any // string or error, consumed in order
	prompts   []string
	contents  []*llm.InlineContent
}

func (c *scriptedClient) next() (string, error) {
	if len(c.responses) == 0 {
		return "", errors.New("no scripted response left")
	}
	head := c.responses[0]
	c.responses = c.responses[1:]
	if err, ok := head.(error); ok {
		return "", err
	}
	return head.(string), nil
}

func (c *scriptedClient) GenerateContent(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	c.prompts = append(c.prompts, prompt)
	return c.next()
}

func (c *scriptedClient) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	c.prompts = append(c.prompts, prompt)
	return c.next()
}

func (c *scriptedClient) GenerateJSONWithContent(_ context.Context, prompt string, content *llm.InlineContent, _ llm.ModelTier) (string, error) {
	c.prompts = append(c.prompts, prompt)
	c.contents = append(c.contents, content)
	return c.next()
}

func (c *scriptedClient) GetModel(llm.ModelTier) string { return "scripted" }
func (c *scriptedClient) Close() error                  { return nil }

type staticCatalog []types.PriceCatalogEntry

func (s staticCatalog) CatalogForOwner(context.Context, string) ([]types.PriceCatalogEntry, error) {
	return s, nil
}

const phase1Response = `{
  "success": true,
  "contractorInfo": {"companyName": "Apex Demo LLC", "address": "12 Main St", "phone": "555-0100", "contactPerson": "J. Ortiz", "email": "bids@apexdemo.test", "license": "C-21 998877"},
  "clientInfo": {"companyName": "Retail Holdings", "address": "400 Plaza Dr"},
  "projectDetails": {"documentType": "bid", "bidDate": "2026-07-14", "projectName": "Suite 210 Demo", "location": "Plano TX"},
  "basicItemCount": 3,
  "sectionHeaders": ["Demolition Plan Keynotes"],
  "scopeOfWork": {"itemsToRemove": ["Suspended ceiling", "Cove base", "Doors"], "itemsToRemain": ["Fire sprinklers"]},
  "specialNotes": ["Sprinklers to remain"],
  "priceInfo": {"totalAmount": "$12,500", "includes": ["dumpsters", "broom sweep"]},
  "exclusions": ["permits"],
  "additionalConditions": []
}`

const phase2aResponse = `{
  "success": true,
  "totalItems": 3,
  "demolitionItems": [
    {"itemNumber": "1", "name": "Suspended Ceiling", "description": "ACT ceiling system", "category": "ceiling", "action": "Remove",
     "pricesheetMatch": {"matched": false, "itemName": null, "itemPrice": null, "itemId": null}},
    {"itemNumber": "2", "name": "Cove base", "description": "rubber cove base", "category": "floor", "action": "Remove",
     "pricesheetMatch": {"matched": true, "itemName": "Cove base removal", "itemPrice": 2, "itemId": "ps-77"}},
    {"itemNumber": "3", "name": "Doors/Frames", "description": "HM doors and frames", "category": "door", "action": "Remove",
     "pricesheetMatch": {"matched": false, "itemName": null, "itemPrice": null, "itemId": null}}
  ]
}`

const rawMeasurementsResponse = `{
  "success": true,
  "rawMeasurements": [
    {"item": "Suspended Ceiling", "measurementText": "no measurement listed"},
    {"item": "Cove base", "measurementText": "75 LF"},
    {"item": "Doors/Frames", "measurementText": "see schedule"}
  ]
}`

const fallbackResponse = `{
  "success": true,
  "totalItems": 3,
  "demolitionItems": [
    {"itemNumber": "1", "name": "Suspended Ceiling", "description": "ACT ceiling system", "category": "ceiling", "action": "Remove",
     "measurements": {"quantity": null, "unit": "SF", "squareFeet": 3550, "linearFeet": null, "count": null, "dimensions": null},
     "pricing": null,
     "pricesheetMatch": {"matched": false, "itemName": null, "itemPrice": null, "itemId": null}},
    {"itemNumber": "2", "name": "Cove base", "description": "rubber cove base", "category": "floor", "action": "Remove",
     "measurements": {"quantity": null, "unit": "LF", "squareFeet": null, "linearFeet": 75, "count": null, "dimensions": null},
     "pricing": null,
     "pricesheetMatch": {"matched": false, "itemName": null, "itemPrice": null, "itemId": null}},
    {"itemNumber": "3", "name": "Doors/Frames", "description": "HM doors and frames", "category": "door", "action": "Remove",
     "measurements": {"quantity": null, "unit": "EA", "squareFeet": null, "linearFeet": null, "count": 3, "dimensions": null},
     "pricing": null,
     "pricesheetMatch": {"matched": false, "itemName": null, "itemPrice": null, "itemId": null}}
  ]
}`

func pdfDoc() types.RawDocument {
	return types.RawDocument{Bytes: []byte("%PDF-1.4 fake"), Filename: "suite-210-demo.pdf", MimeType: "application/pdf"}
}

func fixedClock() time.Time {
	return time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
}

func TestExtract_EndToEnd(t *testing.T) {
	client := &scriptedClient{responses: []any{phase1Response, phase2aResponse, rawMeasurementsResponse}}
	catalog := staticCatalog{
		{Name: "Cove base removal", Price: 2, Category: "floor"},
	}
	o := NewOrchestrator(client, WithCatalogSource(catalog), WithClock(fixedClock))

	result := o.Extract(context.Background(), pdfDoc(), "user-1")

	require.True(t, result.Success)
	assert.Equal(t, "gemini-three-phase", result.Method)
	assert.True(t, result.ProcessingPhases.Phase1Success)
	assert.True(t, result.ProcessingPhases.Phase2ASuccess)
	assert.True(t, result.ProcessingPhases.Phase2BSuccess)

	assert.Equal(t, "Apex Demo LLC", result.ContractorInfo.CompanyName)
	assert.Equal(t, "Suite 210 Demo", result.ProjectDetails.ProjectName)
	assert.Equal(t, []string{"Fire sprinklers"}, result.ScopeOfWork.ItemsToRemain)

	require.Len(t, result.DemolitionItems, 3)
	coveBase := result.DemolitionItems[1]
	require.NotNil(t, coveBase.Measurements.LinearFeet)
	assert.Equal(t, 75.0, *coveBase.Measurements.LinearFeet)
	require.NotNil(t, coveBase.Measurements.Unit)
	assert.Equal(t, types.UnitLinearFeet, *coveBase.Measurements.Unit)

	assert.Equal(t, 150.0, coveBase.CalculatedTotalPrice)
	assert.Equal(t, types.MethodPricesheet, coveBase.PriceCalculation.CalculationMethod)
	assert.Zero(t, result.DemolitionItems[0].CalculatedTotalPrice)
	assert.Zero(t, result.DemolitionItems[2].CalculatedTotalPrice)

	assert.Equal(t, 150.0, result.PricingSummary.TotalCalculatedCost)
	assert.Equal(t, 1, result.PricingSummary.ItemsWithPrices)
	assert.Equal(t, 1, result.PricingSummary.ItemsWithPricesheetMatch)
	assert.Equal(t, 2, result.PricingSummary.ItemsWithoutPrices)
}

func TestExtract_CatalogRenderedIntoPrompt(t *testing.T) {
	client := &scriptedClient{responses: []any{phase1Response, phase2aResponse, rawMeasurementsResponse}}
	catalog := staticCatalog{
		{Name: "Cove base removal", Price: 2, Category: "floor"},
		{Name: "Door and frame", Price: 45.5, Category: "door"},
	}
	o := NewOrchestrator(client, WithCatalogSource(catalog), WithClock(fixedClock))

	o.Extract(context.Background(), pdfDoc(), "user-1")

	require.Len(t, client.prompts, 3)
	phase2aPrompt := client.prompts[1]
	assert.Contains(t, phase2aPrompt, `AVAILABLE PRICESHEET ITEMS FOR MATCHING`)
	assert.Contains(t, phase2aPrompt, `- "Cove base removal" (Price: $2)`)
	assert.Contains(t, phase2aPrompt, `- "Door and frame" (Price: $45.5)`)
	assert.Contains(t, phase2aPrompt, "DOOR:")
	assert.Contains(t, phase2aPrompt, "Apex Demo LLC")
	assert.Contains(t, phase2aPrompt, "Expected Items: 3")
}

func TestExtract_PDFRidesAsInlineContent(t *testing.T) {
	client := &scriptedClient{responses: []any{phase1Response, phase2aResponse, rawMeasurementsResponse}}
	o := NewOrchestrator(client, WithClock(fixedClock))

	o.Extract(context.Background(), pdfDoc(), "")

	require.NotEmpty(t, client.contents)
	require.NotNil(t, client.contents[0])
	assert.Equal(t, "application/pdf", client.contents[0].MimeType)
	assert.Equal(t, []byte("%PDF-1.4 fake"), client.contents[0].Data)
}

func TestExtract_TextDocumentAppendedToPrompt(t *testing.T) {
	client := &scriptedClient{responses: []any{phase1Response, phase2aResponse, rawMeasurementsResponse}}
	o := NewOrchestrator(client, WithClock(fixedClock))

	doc := types.RawDocument{Bytes: []byte("Demo scope: remove 75 LF cove base"), Filename: "scope.txt", MimeType: "text/plain"}
	o.Extract(context.Background(), doc, "")

	require.NotEmpty(t, client.prompts)
	assert.Contains(t, client.prompts[0], "Demo scope: remove 75 LF cove base")
	assert.Nil(t, client.contents[0])
}

func TestExtract_FallbackOnUnrepairableRawStep(t *testing.T) {
	client := &scriptedClient{responses: []any{
		phase1Response,
		phase2aResponse,
		"the model rambled and produced nothing machine readable",
		fallbackResponse,
	}}
	o := NewOrchestrator(client, WithClock(fixedClock))

	result := o.Extract(context.Background(), pdfDoc(), "")

	require.True(t, result.Success)
	assert.Equal(t, "gemini-fallback", result.Method)
	assert.True(t, result.ProcessingPhases.Phase2BSuccess)
	require.Len(t, result.DemolitionItems, 3)

	// Identity comes from the identification phase, measurements from the
	// fallback call, merged index-wise.
	assert.Equal(t, "Cove base", result.DemolitionItems[1].Name)
	require.NotNil(t, result.DemolitionItems[1].Measurements.LinearFeet)
	assert.Equal(t, 75.0, *result.DemolitionItems[1].Measurements.LinearFeet)
	require.NotNil(t, result.DemolitionItems[0].Measurements.SquareFeet)
	assert.Equal(t, 3550.0, *result.DemolitionItems[0].Measurements.SquareFeet)
}

func TestExtract_BothMeasurementPathsFail(t *testing.T) {
	client := &scriptedClient{responses: []any{
		phase1Response,
		phase2aResponse,
		"not json",
		errors.New("model timeout"),
	}}
	o := NewOrchestrator(client, WithClock(fixedClock))

	result := o.Extract(context.Background(), pdfDoc(), "")

	assert.False(t, result.Success)
	assert.True(t, result.ProcessingPhases.Phase2ASuccess)
	assert.False(t, result.ProcessingPhases.Phase2BSuccess)
	require.Len(t, result.DemolitionItems, 3, "identified items survive for manual review")
	assert.Nil(t, result.DemolitionItems[0].Measurements.SquareFeet)
	assert.NotEmpty(t, result.ExtractionNotes)
}

func TestExtract_Phase1FailureReturnsStub(t *testing.T) {
	client := &scriptedClient{responses: []any{errors.New("quota exceeded")}}
	o := NewOrchestrator(client, WithClock(fixedClock))

	result := o.Extract(context.Background(), pdfDoc(), "")

	assert.False(t, result.Success)
	assert.Equal(t, "fallback-document-extraction", result.Method)
	assert.Equal(t, "suite 210 demo", result.ContractorInfo.CompanyName)
	assert.Equal(t, "To be determined", result.ContractorInfo.Address)
	assert.Empty(t, result.DemolitionItems)
	assert.Contains(t, result.ExtractionNotes, "manual review required")
	assert.Contains(t, result.ExtractionNotes, "suite-210-demo.pdf")
}

func TestExtract_EmptyItemListSkipsMeasurement(t *testing.T) {
	emptyPhase2a := `{"success": true, "totalItems": 0, "demolitionItems": []}`
	client := &scriptedClient{responses: []any{phase1Response, emptyPhase2a}}
	o := NewOrchestrator(client, WithClock(fixedClock))

	result := o.Extract(context.Background(), pdfDoc(), "")

	assert.True(t, result.Success)
	assert.Empty(t, result.DemolitionItems)
	assert.Equal(t, "no_items_found", result.PricingSummary.CalculationMethod)
	assert.Empty(t, client.responses, "no measurement call for an empty item list")
}

func TestAlignMeasurements_NameThenPosition(t *testing.T) {
	unit := types.UnitSquareFeet
	fv := 120.0
	items := []types.DemolitionItem{
		{Name: "Suspended Ceiling"},
		{Name: "Cove base"},
	}
	normalized := []types.NormalizedMeasurement{
		{Item: "suspended ceiling", Measurements: types.Measurement{Dimensions: "by name"}},
		{Item: "something else entirely", Measurements: types.Measurement{Unit: &unit, SquareFeet: &fv}},
	}

	alignMeasurements(items, normalized)

	assert.Equal(t, "by name", items[0].Measurements.Dimensions)
	require.NotNil(t, items[1].Measurements.SquareFeet, "unmatched measurement lands at its own position")
	assert.Equal(t, 120.0, *items[1].Measurements.SquareFeet)
}
