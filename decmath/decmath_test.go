package decmath

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromRatioTruncates(t *testing.T) {
	d, err := FromRatio(big.NewInt(1), big.NewInt(3))
	require.NoError(t, err)
	require.Equal(t, "0.333333333333333333", d.String())

	_, err = FromRatio(big.NewInt(1), big.NewInt(0))
	require.ErrorIs(t, err, ErrArithmetic)
}

func TestFromString(t *testing.T) {
	d, err := FromString("0.003")
	require.NoError(t, err)
	require.Equal(t, "0.003", d.String())

	_, err = FromString("-0.1")
	require.ErrorIs(t, err, ErrArithmetic)

	_, err = FromString("abc")
	require.ErrorIs(t, err, ErrArithmetic)
}

func TestReverse(t *testing.T) {
	d, err := FromString("0.5")
	require.NoError(t, err)
	r, err := d.Reverse()
	require.NoError(t, err)
	require.Equal(t, "2", r.String())

	_, err = Zero().Reverse()
	require.ErrorIs(t, err, ErrArithmetic)
}

func TestMulIntFloors(t *testing.T) {
	// 1/(1 - 0.003) = 1.003009027081243731...
	rate, err := FromString("0.003")
	require.NoError(t, err)
	oneMinus, err := One().Sub(rate)
	require.NoError(t, err)
	rev, err := oneMinus.Reverse()
	require.NoError(t, err)
	require.Equal(t, int64(1003), rev.MulInt(big.NewInt(1000)).Int64())
	require.Equal(t, int64(100300), rev.MulInt(big.NewInt(100000)).Int64())
}

func TestSubUnderflow(t *testing.T) {
	small, err := FromString("0.1")
	require.NoError(t, err)
	_, err = small.Sub(One())
	require.ErrorIs(t, err, ErrArithmetic)
}

func TestCheckedOps(t *testing.T) {
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

	_, err := CheckedAdd(max, big.NewInt(1))
	require.ErrorIs(t, err, ErrArithmetic)

	s, err := CheckedAdd(big.NewInt(2), big.NewInt(3))
	require.NoError(t, err)
	require.Equal(t, int64(5), s.Int64())

	_, err = CheckedSub(big.NewInt(2), big.NewInt(3))
	require.ErrorIs(t, err, ErrArithmetic)

	d, err := CheckedSub(big.NewInt(3), big.NewInt(2))
	require.NoError(t, err)
	require.Equal(t, int64(1), d.Int64())
}

func TestMulRatio(t *testing.T) {
	v, err := MulRatio(big.NewInt(997), big.NewInt(3), big.NewInt(1000))
	require.NoError(t, err)
	require.Equal(t, int64(2), v.Int64())

	_, err = MulRatio(big.NewInt(1), big.NewInt(1), big.NewInt(0))
	require.ErrorIs(t, err, ErrArithmetic)
}

func TestSqrt(t *testing.T) {
	require.Equal(t, int64(20000), Sqrt(big.NewInt(10000*40000)).Int64())
	require.Equal(t, int64(3), Sqrt(big.NewInt(15)).Int64())
}
