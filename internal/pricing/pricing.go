package pricing

import "github.com/shopspring/decimal"

const (
	ModeText  = "text"
	ModeImage = "image"
)

// USD costs are quantized to four decimal places, bankers' rounding.
const costPlaces = 4

var million = decimal.NewFromInt(1_000_000)

// Entry is the resolved pricing descriptor for one model alias. Text-mode
// entries price per million input/output tokens; image-mode entries price
// per request. Unset prices are zero.
type Entry struct {
	Alias               string
	Mode                string
	InputPerMillionUSD  decimal.Decimal
	OutputPerMillionUSD decimal.Decimal
	PerImageInputUSD    decimal.Decimal
	PerImageOutputUSD   decimal.Decimal
}

// ImageCounts carries the request counts for image-mode pricing,
// independent of token counts. Typically {In: 1, Out: 0}.
type ImageCounts struct {
	In  int64
	Out int64
}

// Cost returns the USD cost of one chargeable operation. Deterministic,
// no I/O.
func Cost(entry Entry, inTokens, outTokens int64, images *ImageCounts) decimal.Decimal {
	if entry.Mode == ModeImage {
		counts := ImageCounts{In: 1, Out: 0}
		if images != nil {
			counts = *images
		}
		cost := entry.PerImageInputUSD.Mul(decimal.NewFromInt(counts.In)).
			Add(entry.PerImageOutputUSD.Mul(decimal.NewFromInt(counts.Out)))
		return cost.RoundBank(costPlaces)
	}
	inCost := decimal.NewFromInt(inTokens).Div(million).Mul(entry.InputPerMillionUSD)
	outCost := decimal.NewFromInt(outTokens).Div(million).Mul(entry.OutputPerMillionUSD)
	return inCost.Add(outCost).RoundBank(costPlaces)
}

// DebitTokens returns the wallet debit for one operation. Text-mode usage
// burns exactly the tokens consumed; image requests are not token-denominated
// and burn a flat nominal amount instead.
func DebitTokens(entry Entry, inTokens, outTokens, imageChargeTokens int64) int64 {
	if entry.Mode == ModeImage {
		return imageChargeTokens
	}
	return inTokens + outTokens
}
