package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delegationapp/delegate/internal/models"
)

func TestValidateTitleBounds(t *testing.T) {
	assert.Error(t, ValidateTitle(""))
	assert.Error(t, ValidateTitle("ab"))
	assert.Error(t, ValidateTitle("  ab  "))
	assert.NoError(t, ValidateTitle("abc"))
	assert.NoError(t, ValidateTitle("Помыть окна")) // rune count, not bytes

	long := make([]rune, 200)
	for i := range long {
		long[i] = 'x'
	}
	assert.NoError(t, ValidateTitle(string(long)))
	assert.Error(t, ValidateTitle(string(long)+"x"))
}

func TestValidateBudgetBounds(t *testing.T) {
	assert.Error(t, ValidateBudget(""))
	assert.Error(t, ValidateBudget("   "))
	assert.Error(t, ValidateBudget("abc"))
	assert.Error(t, ValidateBudget("-1"))
	assert.NoError(t, ValidateBudget("0"))
	assert.NoError(t, ValidateBudget("1500.50"))
	assert.NoError(t, ValidateBudget("1000000"))
	assert.Error(t, ValidateBudget("1000000.01"))
}

func TestValidateTimeWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.NoError(t, ValidateTimeWindow(now.Add(5*time.Minute), nil, now))
	assert.Error(t, ValidateTimeWindow(now.Add(5*time.Minute-time.Second), nil, now))

	start := now.Add(time.Hour)
	okEnd := start.Add(10 * time.Minute)
	shortEnd := start.Add(10*time.Minute - time.Second)
	assert.NoError(t, ValidateTimeWindow(start, &okEnd, now))
	assert.Error(t, ValidateTimeWindow(start, &shortEnd, now))
}

func TestValidateAddress(t *testing.T) {
	assert.Error(t, ValidateAddress(""))
	assert.Error(t, ValidateAddress("   "))
	assert.Error(t, ValidateAddress("ab c"))
	assert.NoError(t, ValidateAddress("Lenina 5"))
	// padding does not count towards the minimum
	assert.Error(t, ValidateAddress("  ab    c  "))
}

func TestValidateRouteRejectsSameEndpoints(t *testing.T) {
	assert.Error(t, ValidateRoute("Lenina 5", "lenina  5"))
	assert.NoError(t, ValidateRoute("Lenina 5", "Lenina 6"))
}

func TestValidateCargo(t *testing.T) {
	dim := func(v float64) *float64 { return &v }

	assert.NoError(t, ValidateCargo(models.CargoDimensions{}))
	assert.NoError(t, ValidateCargo(models.CargoDimensions{Length: dim(85), Width: dim(57), Height: dim(57)}))
	assert.Error(t, ValidateCargo(models.CargoDimensions{Length: dim(85.5)}))
	assert.Error(t, ValidateCargo(models.CargoDimensions{Width: dim(57.1)}))
	assert.Error(t, ValidateCargo(models.CargoDimensions{Height: dim(58)}))
	assert.Error(t, ValidateCargo(models.CargoDimensions{Length: dim(0)}))
	assert.Error(t, ValidateCargo(models.CargoDimensions{Width: dim(-1)}))
}

func TestValidateFloor(t *testing.T) {
	floor := func(v int) *int { return &v }

	assert.NoError(t, ValidateFloor(nil))
	assert.NoError(t, ValidateFloor(floor(0)))
	assert.NoError(t, ValidateFloor(floor(200)))
	assert.Error(t, ValidateFloor(floor(-1)))
	assert.Error(t, ValidateFloor(floor(201)))
}

func TestNormalizePhone(t *testing.T) {
	got, err := NormalizePhone("+7 (999) 123-45-67")
	require.NoError(t, err)
	assert.Equal(t, "+79991234567", got)

	got, err = NormalizePhone("89991234567")
	require.NoError(t, err)
	assert.Equal(t, "+79991234567", got)

	got, err = NormalizePhone("")
	require.NoError(t, err)
	assert.Equal(t, "", got)

	_, err = NormalizePhone("79991234567") // bare 7 without plus
	assert.Error(t, err)
	_, err = NormalizePhone("+89991234567")
	assert.Error(t, err)
	_, err = NormalizePhone("+7999123456") // 10 digits
	assert.Error(t, err)
	_, err = NormalizePhone("12345")
	assert.Error(t, err)
}
