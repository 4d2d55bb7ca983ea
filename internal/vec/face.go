package vec

// Face грань блока
type Face uint8

const (
	FaceRight  Face = iota // +X
	FaceLeft               // -X
	FaceTop                // +Y
	FaceBottom             // -Y
	FaceFront              // +Z
	FaceBack               // -Z
)

// AllFaces перечисляет шесть граней в фиксированном порядке
var AllFaces = [6]Face{FaceRight, FaceLeft, FaceTop, FaceBottom, FaceFront, FaceBack}

var faceOffsets = [6]Position{
	{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1},
}

// Offset возвращает смещение к соседнему блоку со стороны грани
func (f Face) Offset() Position {
	return faceOffsets[f]
}

// Opposite возвращает противоположную грань
func (f Face) Opposite() Face {
	return f ^ 1
}

// String возвращает имя грани
func (f Face) String() string {
	switch f {
	case FaceRight:
		return "right"
	case FaceLeft:
		return "left"
	case FaceTop:
		return "top"
	case FaceBottom:
		return "bottom"
	case FaceFront:
		return "front"
	case FaceBack:
		return "back"
	}
	return "unknown"
}
