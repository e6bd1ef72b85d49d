// Package program compiles composed terrain shaders on the current OpenGL
// context and binds their samplers to reserved texture units.
package program

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/midgard-terrain/internal/engine/shader"
)

// CompileProgram compiles vertex and fragment shaders and links them into a program.
// Returns the program ID or an error if compilation/linking fails.
func CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	// Compile vertex shader
	vertShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertShader)

	// Compile fragment shader
	fragShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragShader)

	// Link program
	program := gl.CreateProgram()
	gl.AttachShader(program, vertShader)
	gl.AttachShader(program, fragShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen)
		gl.GetProgramInfoLog(program, logLen, nil, &log[0])
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", string(log))
	}

	return program, nil
}

// compileShader compiles a single shader of the given type.
func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	id := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(id, 1, csource, nil)
	free()
	gl.CompileShader(id)

	var status int32
	gl.GetShaderiv(id, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(id, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen)
		gl.GetShaderInfoLog(id, logLen, nil, &log[0])
		gl.DeleteShader(id)
		return 0, fmt.Errorf("%s shader: %s", name, string(log))
	}

	return id, nil
}

// Build composes the sampler header into both stages, compiles and links the
// program, and points every sampler uniform at its unit.
func Build(vertexSrc, fragmentSrc string, samplers []shader.Sampler) (uint32, error) {
	vs, err := shader.Compose(vertexSrc, samplers)
	if err != nil {
		return 0, err
	}
	fs, err := shader.Compose(fragmentSrc, samplers)
	if err != nil {
		return 0, err
	}
	prog, err := CompileProgram(vs, fs)
	if err != nil {
		return 0, err
	}
	BindSamplers(prog, samplers)
	return prog, nil
}

// BindSamplers sets each sampler uniform to its texture unit. Samplers the
// linker optimized away are skipped.
func BindSamplers(program uint32, samplers []shader.Sampler) {
	gl.UseProgram(program)
	for _, s := range samplers {
		loc := gl.GetUniformLocation(program, gl.Str(s.Name+"\x00"))
		if loc < 0 {
			continue
		}
		gl.Uniform1i(loc, int32(s.Unit))
	}
	gl.UseProgram(0)
}
