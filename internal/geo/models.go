package geo

// Region is a Census region (Northeast, Midwest, ...).
type Region struct {
	ID   int    `gorm:"primaryKey;column:Id;autoIncrement:false"`
	Name string `gorm:"column:Name"`
}

func (Region) TableName() string { return "Regions" }

type Division struct {
	ID       int    `gorm:"primaryKey;column:Id;autoIncrement:false"`
	Name     string `gorm:"column:Name"`
	RegionID int    `gorm:"column:RegionId"`
}

func (Division) TableName() string { return "Divisions" }

type State struct {
	ID         int    `gorm:"primaryKey;column:Id;autoIncrement:false"`
	Name       string `gorm:"column:Name"`
	RegionID   int    `gorm:"column:RegionId"`
	DivisionID int    `gorm:"column:DivisionId"`
}

func (State) TableName() string { return "States" }

// County is keyed by a store-assigned ID; (StateID, Fips) is unique.
type County struct {
	ID      int    `gorm:"primaryKey;column:Id"`
	Name    string `gorm:"column:Name"`
	StateID int    `gorm:"column:StateId"`
	Fips    string `gorm:"column:Fips"`
}

func (County) TableName() string { return "Counties" }

type CensusTract struct {
	Tract    string `gorm:"column:Tract"`
	StateID  int    `gorm:"column:StateId"`
	CountyID int    `gorm:"column:CountyId"`
	PumaCode string `gorm:"column:PumaCode"`
}

func (CensusTract) TableName() string { return "CensusTracts" }

type SchoolLevel struct {
	ID    int    `gorm:"primaryKey;column:Id"`
	Level string `gorm:"column:Level"`
}

func (SchoolLevel) TableName() string { return "SchoolLevels" }

type SchoolGrade struct {
	ID    int    `gorm:"primaryKey;column:Id"`
	Grade string `gorm:"column:Grade"`
}

func (SchoolGrade) TableName() string { return "SchoolGrades" }

// GradeCount is the number of "has grade" flags a school carries, PreK
// through 13th.
const GradeCount = 15

// GradeColumns are the Schools columns for each grade flag, in flag order.
var GradeColumns = [GradeCount]string{
	"HasPreK", "HasKindergarten",
	"Has1st", "Has2nd", "Has3rd", "Has4th", "Has5th", "Has6th",
	"Has7th", "Has8th", "Has9th", "Has10th", "Has11th", "Has12th", "Has13th",
}

type School struct {
	Name         string
	StateID      int
	CountyID     int
	Address      string
	City         string
	Zip          string
	NcesID       string
	Level        int
	LowestGrade  int
	HighestGrade int
	Grades       [GradeCount]bool
	SchoolType   string
	IsCharter    bool
	IsMagnet     bool
	Latitude     float64
	Longitude    float64
}

func (School) TableName() string { return "Schools" }

func (s School) HasPreK() bool         { return s.Grades[0] }
func (s School) HasKindergarten() bool { return s.Grades[1] }

// HasGrade reports the flag for grades 1 through 13.
func (s School) HasGrade(n int) bool {
	if n < 1 || n > 13 {
		return false
	}
	return s.Grades[n+1]
}
