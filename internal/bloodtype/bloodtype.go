package bloodtype

import (
	"fmt"
	"strings"
)

// BloodType is an ABO group with its Rh factor, e.g. "AB+".
type BloodType string

const (
	OPos  BloodType = "O+"
	ONeg  BloodType = "O-"
	APos  BloodType = "A+"
	ANeg  BloodType = "A-"
	BPos  BloodType = "B+"
	BNeg  BloodType = "B-"
	ABPos BloodType = "AB+"
	ABNeg BloodType = "AB-"
)

// All lists every blood type in the order donors are asked to pick from.
var All = []BloodType{APos, ANeg, BPos, BNeg, ABPos, ABNeg, OPos, ONeg}

// donorTo maps a donor type to the recipient types it may supply.
var donorTo = map[BloodType][]BloodType{
	ONeg:  All,
	OPos:  {OPos, APos, BPos, ABPos},
	ANeg:  {ANeg, APos, ABNeg, ABPos},
	APos:  {APos, ABPos},
	BNeg:  {BNeg, BPos, ABNeg, ABPos},
	BPos:  {BPos, ABPos},
	ABNeg: {ABNeg, ABPos},
	ABPos: {ABPos},
}

// Parse normalises input such as " ab+ " into a known BloodType.
func Parse(s string) (BloodType, error) {
	bt := BloodType(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := donorTo[bt]; !ok {
		return "", fmt.Errorf("unknown blood type %q", s)
	}
	return bt, nil
}

func (bt BloodType) String() string {
	return string(bt)
}

// CanDonate reports whether blood from donor may be given to recipient.
// Unknown types on either side are never compatible.
func CanDonate(donor, recipient BloodType) bool {
	for _, r := range donorTo[donor] {
		if r == recipient {
			return true
		}
	}
	return false
}
