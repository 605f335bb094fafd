package render

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// ShaderParms is the uniform block read by the main pass fragment shader.
// Field order and padding follow std140.
type ShaderParms struct {
	Resolution mgl32.Vec2
	Mouse      mgl32.Vec2
	Time       float32
	Frame      uint32
	_          [2]float32
	Tint       mgl32.Vec4
}

var shaderParmsSize = int(unsafe.Sizeof(ShaderParms{}))

func shaderParmsAt(hostData []byte) *ShaderParms {
	if len(hostData) < shaderParmsSize {
		return nil
	}
	return (*ShaderParms)(unsafe.Pointer(&hostData[0]))
}
