package scoring

// Weights holds the point values used by the relator and committee scores.
// The upstream data never justifies exact numbers, so they are configuration,
// not business rules.
type Weights struct {
	RelatorAmendment    int // PEC relatorias
	RelatorLaw          int // PL/PLS/PLC/PLP/MPV relatorias
	RelatorOther        int // requerimentos and everything else
	CommitteeFull       int // titular seat
	CommitteeAlternate  int // suplente seat
	CommitteeChairBonus int // added on top of either seat weight
}

// DefaultWeights returns the canonical weight table.
func DefaultWeights() Weights {
	return Weights{
		RelatorAmendment:    10,
		RelatorLaw:          5,
		RelatorOther:        1,
		CommitteeFull:       100,
		CommitteeAlternate:  50,
		CommitteeChairBonus: 50,
	}
}

// strategicCommittees are the acronyms treated as high-influence assignments
// (justice, economic affairs, foreign relations, and a legacy variant code).
var strategicCommittees = []string{"CCJ", "CAE", "CRE", "CJ"}

// oversightTypeCode marks appointment-confirmation matters (sabatinas).
const oversightTypeCode = "MSF"

// lawTypeCodes are the ordinary/complementary-law variants that earn the
// RelatorLaw weight. Anything else that is not a PEC falls into "other".
var lawTypeCodes = map[string]bool{
	"PL":  true,
	"PLS": true,
	"PLC": true,
	"PLP": true,
	"MPV": true,
}
