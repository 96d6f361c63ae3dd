package registry

import "github.com/iwvelando/weight-balance/internal/balance"

// mainDeckArms holds the 777 main deck pallet positions. Left and right
// positions share an arm.
var mainDeckArms = []struct {
	row string
	arm float64
}{
	{"A", 460},
	{"B", 586},
	{"C", 712},
	{"D", 838},
	{"E", 964},
	{"F", 1090},
	{"G", 1216},
	{"H", 1342},
	{"J", 1468},
	{"K", 1594},
	{"L", 1719},
	{"M", 1858},
	{"P", 1984},
}

// tailPositionArm is the arm of the single centerline position R.
const tailPositionArm = 2095

// DefaultPositions returns the static 777 main deck position set.
func DefaultPositions() []Position {
	out := make([]Position, 0, 2*len(mainDeckArms)+1)
	for _, row := range mainDeckArms {
		for _, side := range []string{"L", "R"} {
			out = append(out, Position{
				Code:       balance.PositionCode(row.row + side),
				Name:       row.row + side,
				Arm:        row.arm,
				PalletType: "PMC",
			})
		}
	}
	out = append(out, Position{Code: "R", Name: "R", Arm: tailPositionArm, PalletType: "PMC"})
	return out
}
