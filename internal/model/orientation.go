package model

// Orientation is the EXIF orientation tag value (0x0112).
type Orientation int

const (
	OrientationUndefined      Orientation = 0
	OrientationNormal         Orientation = 1
	OrientationFlipHorizontal Orientation = 2
	OrientationRotate180      Orientation = 3
	OrientationFlipVertical   Orientation = 4
	OrientationTranspose      Orientation = 5
	OrientationRotate90CW     Orientation = 6
	OrientationTransverse     Orientation = 7
	OrientationRotate90CCW    Orientation = 8
)

var orientationNames = map[Orientation]string{
	OrientationUndefined:      "undefined",
	OrientationNormal:         "normal",
	OrientationFlipHorizontal: "flip-horizontal",
	OrientationRotate180:      "rotate-180",
	OrientationFlipVertical:   "flip-vertical",
	OrientationTranspose:      "transpose",
	OrientationRotate90CW:     "rotate-90-cw",
	OrientationTransverse:     "transpose-anti",
	OrientationRotate90CCW:    "rotate-90-ccw",
}

func (o Orientation) String() string {
	if name, ok := orientationNames[o]; ok {
		return name
	}
	return "undefined"
}

// Valid reports whether o is one of the eight defined orientations.
func (o Orientation) Valid() bool {
	return o >= OrientationNormal && o <= OrientationRotate90CCW
}

// SwapsDimensions is true for the variants that turn the image by 90 degrees.
func (o Orientation) SwapsDimensions() bool {
	return o >= OrientationTranspose && o <= OrientationRotate90CCW
}

// ShouldPropagate - тег имеет смысл переносить в результат только если он что-то меняет
func (o Orientation) ShouldPropagate() bool {
	return o.Valid() && o != OrientationNormal
}
