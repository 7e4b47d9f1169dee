package availability

// Palette holds the background colour of each availability kind.
type Palette struct {
	Busy     string
	Personal string
	Vacation string
	Holiday  string
}

// Default colours rendered by the calendar front end.
const (
	ColorBusy     = "#1c1c1c"
	ColorPersonal = "#585858"
	ColorVacation = "#363636"
	ColorHoliday  = "#2f3b52"
)

// DefaultPalette returns the standard calendar colours.
func DefaultPalette() Palette {
	return Palette{
		Busy:     ColorBusy,
		Personal: ColorPersonal,
		Vacation: ColorVacation,
		Holiday:  ColorHoliday,
	}
}
