// Package body records weight, height and body composition measurements.
package body

// Classification labels shown to the user.
const (
	Underweight = "Abaixo do peso"
	Normal      = "Peso normal"
	Overweight  = "Sobrepeso"
	Obese       = "Obesidade"
)

// BMI is weight (kg) over height (m) squared.
func BMI(weightKg, heightM float64) float64 {
	return weightKg / (heightM * heightM)
}

func Classify(bmi float64) string {
	switch {
	case bmi < 18.5:
		return Underweight
	case bmi < 25:
		return Normal
	case bmi < 30:
		return Overweight
	default:
		return Obese
	}
}
