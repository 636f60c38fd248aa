package types

// Chamber identifies which legislative house a record came from. Numeric ids
// are only unique within a chamber, so (Chamber, ID) is the real identity.
type Chamber string

const (
	ChamberLower Chamber = "camara"
	ChamberUpper Chamber = "senado"
)

// Role of a politician relative to a legislative item.
type Role string

const (
	RoleAuthor     Role = "autor"
	RoleRapporteur Role = "relator"
)

// CommitteeRole distinguishes full members from alternates.
type CommitteeRole string

const (
	CommitteeFullMember CommitteeRole = "titular"
	CommitteeAlternate  CommitteeRole = "suplente"
)

// PoliticianSummary is the unified listing/identity record produced by both
// source adapters.
type PoliticianSummary struct {
	ID       int     `json:"id"`
	Name     string  `json:"nome"`
	Party    string  `json:"partido"`
	State    string  `json:"uf"`
	PhotoURL string  `json:"foto"`
	Email    string  `json:"email,omitempty"`
	Chamber  Chamber `json:"casa"`
}

// LegislativeItem is a bill, amendment or proposal the politician authored or
// reported on. TypeCode is free text controlled by the upstream; classification
// must tolerate unknown codes.
type LegislativeItem struct {
	ID       int    `json:"id"`
	TypeCode string `json:"siglaTipo"`
	Number   int    `json:"numero"`
	Year     int    `json:"ano"`
	Summary  string `json:"ementa"`
	Role     Role   `json:"papel"`
}

// CommitteeMembership is one committee seat held by a politician. RawRole keeps
// the upstream participation text ("Titular", "Suplente", sometimes with
// "Presidente" embedded) for display.
type CommitteeMembership struct {
	Acronym string        `json:"sigla"`
	Name    string        `json:"nome"`
	Role    CommitteeRole `json:"cargo"`
	IsChair bool          `json:"presidente"`
	RawRole string        `json:"descricaoCargo,omitempty"`
}

// AttendanceEvent is a session/meeting the politician took part in. Consumed
// only in aggregate after filtering cancelled events.
type AttendanceEvent struct {
	Description string `json:"descricao"`
	Status      string `json:"situacao"`
	Date        string `json:"data,omitempty"`
}

// VoteRecord references a matter the politician voted on. Matters whose type
// code equals the appointment-confirmation sentinel count as oversight
// hearings.
type VoteRecord struct {
	MatterTypeCode string `json:"siglaTipoMateria"`
	MatterNumber   int    `json:"numeroMateria,omitempty"`
	MatterYear     int    `json:"anoMateria,omitempty"`
	Description    string `json:"descricao,omitempty"`
}

// ExpenseLine is one itemized expense entry.
type ExpenseLine struct {
	Category  string  `json:"tipoDespesa"`
	NetAmount float64 `json:"valorLiquido"`
	Month     int     `json:"mes"`
	Year      int     `json:"ano"`
}

// Speech is a plenary/committee discourse entry, counted as a simple activity
// metric.
type Speech struct {
	Summary string `json:"sumario,omitempty"`
	Date    string `json:"data,omitempty"`
}
