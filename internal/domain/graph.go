package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type RelationType string

const (
	RelationRelatedTo   RelationType = "RELATED_TO"
	RelationContradicts RelationType = "CONTRADICTS"
	RelationBelongsTo   RelationType = "BELONGS_TO"
	RelationAlignsWith  RelationType = "ALIGNS_WITH"
	RelationFollows     RelationType = "FOLLOWS"
	RelationPrecedes    RelationType = "PRECEDES"
	RelationModifies    RelationType = "MODIFIES"
)

func ValidRelationType(r string) bool {
	switch RelationType(r) {
	case RelationRelatedTo, RelationContradicts, RelationBelongsTo,
		RelationAlignsWith, RelationFollows, RelationPrecedes, RelationModifies:
		return true
	}
	return false
}

// SymmetricRelations indicates which relations are bidirectional.
var SymmetricRelations = map[RelationType]bool{
	RelationRelatedTo:   true,
	RelationContradicts: true,
}

var (
	ErrRelationTypeInvalid = errors.New("invalid relation type")
	ErrRelationSelfLink    = errors.New("relationship endpoints must be distinct")
	ErrRelationWeight      = errors.New("relationship weight must be in [0,1]")
)

// QuestionLink is a typed relationship between two questions in the knowledge
// graph. For CONTRADICTS links the weight carries the judge's confidence.
type QuestionLink struct {
	ID           uuid.UUID    `json:"id"`
	SourceID     uuid.UUID    `json:"source_id"`
	TargetID     uuid.UUID    `json:"target_id"`
	RelationType RelationType `json:"relation_type"`
	Weight       float64      `json:"weight"`
	CreatedAt    time.Time    `json:"created_at"`
}

func (l *QuestionLink) Validate() error {
	if !ValidRelationType(string(l.RelationType)) {
		return ErrRelationTypeInvalid
	}
	if l.SourceID == uuid.Nil || l.TargetID == uuid.Nil || l.SourceID == l.TargetID {
		return ErrRelationSelfLink
	}
	if l.Weight < 0 || l.Weight > 1 {
		return ErrRelationWeight
	}
	return nil
}
