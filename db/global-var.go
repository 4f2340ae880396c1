package db

const (
	ConstLayoutDateTime = `2006-01-02 15:04`
	ConstLayoutDate     = `2006-01-02`
	ConstLayoutTime     = `15:04`
)

var ConstRoles = struct {
	Admin  int
	Artist int
	Client int
}{
	Admin:  1,
	Artist: 2,
	Client: 3,
}

// Default platform commission percentages by product type. Administrators
// can override them through the commission_setting table.
var ConstDefaultCommissionRates = map[string]float64{
	"sound":  15,
	"ticket": 10,
}
