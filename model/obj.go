package model

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/annotator/spatialmath"
)

// Object is one named object of an OBJ file.
type Object struct {
	Name string
	Mesh *spatialmath.Mesh
}

// OBJ is a decoded Wavefront OBJ file. Only geometry is kept; normals, texture coordinates and
// materials are skipped.
type OBJ struct {
	Objects  []Object
	Warnings []string
}

// Mesh returns all objects merged into one mesh.
func (o *OBJ) Mesh() *spatialmath.Mesh {
	var tris []*spatialmath.Triangle
	for _, obj := range o.Objects {
		tris = append(tris, obj.Mesh.Triangles()...)
	}
	return spatialmath.NewMesh(tris)
}

type objDecoder struct {
	vertices []r3.Vector
	objects  []Object
	current  *Object
	tris     []*spatialmath.Triangle
	warnings []string
	line     int
}

// DecodeOBJ parses an OBJ stream. Polygons are triangulated as fans around their first vertex.
func DecodeOBJ(r io.Reader) (*OBJ, error) {
	dec := &objDecoder{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		dec.line++
		if err := dec.parseLine(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading obj")
	}
	dec.flush()
	if len(dec.objects) == 0 {
		return nil, errors.New("obj has no faces")
	}
	return &OBJ{Objects: dec.objects, Warnings: dec.warnings}, nil
}

func (dec *objDecoder) formatError(msg string) error {
	return errors.Errorf("obj line %d: %s", dec.line, msg)
}

func (dec *objDecoder) parseLine(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}
	switch fields[0] {
	case "v":
		return dec.parseVertex(fields[1:])
	case "f":
		return dec.parseFace(fields[1:])
	case "o", "g":
		dec.flush()
		name := strings.Join(fields[1:], " ")
		if name == "" {
			name = fmt.Sprintf("unnamed%d", dec.line)
		}
		dec.current = &Object{Name: name}
	case "vn", "vt", "vp", "s", "l", "usemtl", "mtllib":
	default:
		dec.warnings = append(dec.warnings, fmt.Sprintf("line %d: unsupported statement %q", dec.line, fields[0]))
	}
	return nil
}

func (dec *objDecoder) parseVertex(fields []string) error {
	if len(fields) < 3 {
		return dec.formatError("vertex with fewer than 3 coordinates")
	}
	var xyz [3]float64
	for i := range xyz {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return dec.formatError(err.Error())
		}
		xyz[i] = v
	}
	dec.vertices = append(dec.vertices, r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]})
	return nil
}

func (dec *objDecoder) vertexIndex(field string) (int, error) {
	idx, _, _ := strings.Cut(field, "/")
	val, err := strconv.Atoi(idx)
	if err != nil {
		return 0, dec.formatError(err.Error())
	}
	switch {
	case val > 0:
		val--
	case val < 0:
		// relative to the last vertex read so far
		val += len(dec.vertices)
	default:
		return 0, dec.formatError("face vertex index 0")
	}
	if val < 0 || val >= len(dec.vertices) {
		return 0, dec.formatError(fmt.Sprintf("face vertex index %s out of range", idx))
	}
	return val, nil
}

func (dec *objDecoder) parseFace(fields []string) error {
	if len(fields) < 3 {
		return dec.formatError("face with fewer than 3 vertices")
	}
	if dec.current == nil {
		dec.current = &Object{Name: fmt.Sprintf("unnamed%d", dec.line)}
	}
	idxs := make([]int, len(fields))
	for i, f := range fields {
		idx, err := dec.vertexIndex(f)
		if err != nil {
			return err
		}
		idxs[i] = idx
	}
	for i := 2; i < len(idxs); i++ {
		tri := spatialmath.NewTriangle(dec.vertices[idxs[0]], dec.vertices[idxs[i-1]], dec.vertices[idxs[i]])
		if tri.Degenerate() {
			continue
		}
		dec.tris = append(dec.tris, tri)
	}
	return nil
}

func (dec *objDecoder) flush() {
	if dec.current != nil && len(dec.tris) > 0 {
		dec.current.Mesh = spatialmath.NewMesh(dec.tris)
		dec.objects = append(dec.objects, *dec.current)
	}
	dec.current = nil
	dec.tris = nil
}
