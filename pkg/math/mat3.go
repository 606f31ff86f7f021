package math

// Mat3 is a 3x3 matrix in row-major order: m[row][col].
type Mat3 [3][3]float64

// Identity3 returns an identity matrix.
func Identity3() Mat3 {
	return Mat3{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
}

// MulVec returns m * v.
func (m Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// Rotation returns the rotation matrix for angle radians about axis.
// The axis is normalized first; a zero axis yields the identity.
func Rotation(axis Vec3, angle float64) Mat3 {
	if axis.IsZero() {
		return Identity3()
	}
	return QuatFromAxisAngle(axis.Normalize(), angle).ToMat3()
}
