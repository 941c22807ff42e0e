package export

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	meshErrors "git.home.luguber.info/inful/meshforge/internal/errors"
	"git.home.luguber.info/inful/meshforge/internal/logfields"
	"git.home.luguber.info/inful/meshforge/internal/mesh"
)

// GLTF component types and buffer view targets (glTF 2.0 constants).
const (
	componentFloat       = 5126
	componentUnsignedInt = 5125
	targetArrayBuffer    = 34962
	targetElementArray   = 34963
	modeTriangles        = 4
)

// GLB container constants.
const (
	glbMagic     = 0x46546C67 // "glTF"
	glbVersion   = 2
	glbChunkJSON = 0x4E4F534A // "JSON"
	glbChunkBIN  = 0x004E4942 // "BIN\0"
)

// gltfDocument is the minimal valid glTF 2.0 document: one scene, one
// node, one mesh, one triangle-list primitive.
type gltfDocument struct {
	Asset       gltfAsset        `json:"asset"`
	Scene       int              `json:"scene"`
	Scenes      []gltfScene      `json:"scenes"`
	Nodes       []gltfNode       `json:"nodes"`
	Meshes      []gltfMesh       `json:"meshes"`
	Buffers     []gltfBuffer     `json:"buffers"`
	BufferViews []gltfBufferView `json:"bufferViews"`
	Accessors   []gltfAccessor   `json:"accessors"`
}

type gltfAsset struct {
	Version   string `json:"version"`
	Generator string `json:"generator"`
}

type gltfScene struct {
	Nodes []int `json:"nodes"`
}

type gltfNode struct {
	Mesh int `json:"mesh"`
}

type gltfMesh struct {
	Primitives []gltfPrimitive `json:"primitives"`
}

type gltfPrimitive struct {
	Attributes map[string]int `json:"attributes"`
	Indices    int            `json:"indices"`
	Mode       int            `json:"mode"`
}

type gltfBuffer struct {
	ByteLength int    `json:"byteLength"`
	URI        string `json:"uri,omitempty"`
}

type gltfBufferView struct {
	Buffer     int `json:"buffer"`
	ByteOffset int `json:"byteOffset"`
	ByteLength int `json:"byteLength"`
	Target     int `json:"target"`
}

type gltfAccessor struct {
	BufferView    int       `json:"bufferView"`
	ComponentType int       `json:"componentType"`
	Count         int       `json:"count"`
	Type          string    `json:"type"`
	Min           []float64 `json:"min,omitempty"`
	Max           []float64 `json:"max,omitempty"`
}

// GLTFExporter writes glTF 2.0: either a single-file GLB container or a
// text JSON document with an external binary buffer.
type GLTFExporter struct {
	formats []string
}

// NewGLTFExporter returns an exporter for the gltf and glb tokens.
func NewGLTFExporter() *GLTFExporter {
	return &GLTFExporter{formats: []string{"gltf", "glb"}}
}

func (e *GLTFExporter) CanExport(format string) bool { return hasFormat(format, e.formats) }

func (e *GLTFExporter) Formats() []string { return e.formats }

func (e *GLTFExporter) Export(m *mesh.MeshData, outputPath string, opts Options) (string, error) {
	variant := "gltf"
	if opts.Binary {
		variant = "glb"
	}
	slog.Info("Exporting glTF", logfields.Path(outputPath), slog.String("variant", variant))

	buffer := packBuffer(m)
	doc := buildDocument(m, len(buffer))

	var size int64
	var err error
	if opts.Binary {
		size, err = writeAtomic(outputPath, func(w io.Writer) error {
			return writeGLB(w, doc, buffer)
		})
	} else {
		binPath := strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".bin"
		doc.Buffers[0].URI = filepath.Base(binPath)
		if _, err = writeAtomic(binPath, func(w io.Writer) error {
			_, werr := w.Write(buffer)
			return werr
		}); err != nil {
			return "", meshErrors.ExportFailure(variant, binPath, err)
		}
		size, err = writeAtomic(outputPath, func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		})
		if err != nil {
			// Don't leave an orphan buffer next to a document that was
			// never placed.
			os.Remove(binPath)
		}
	}
	if err != nil {
		return "", meshErrors.ExportFailure(variant, outputPath, err)
	}

	slog.Info("glTF export complete", logfields.Path(outputPath), logfields.SizeBytes(size))
	return outputPath, nil
}

// packBuffer lays out vertex positions as tightly-packed float32 followed
// by face indices as uint32. The position block is a multiple of 4 bytes
// so the index block needs no alignment padding.
func packBuffer(m *mesh.MeshData) []byte {
	buf := make([]byte, 0, len(m.Vertices)*12+len(m.Faces)*12)
	var scratch [4]byte

	putFloat := func(f float64) {
		binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(float32(f)))
		buf = append(buf, scratch[:]...)
	}
	putUint := func(u uint32) {
		binary.LittleEndian.PutUint32(scratch[:], u)
		buf = append(buf, scratch[:]...)
	}

	for _, v := range m.Vertices {
		putFloat(v[0])
		putFloat(v[1])
		putFloat(v[2])
	}
	for _, f := range m.Faces {
		putUint(uint32(f[0]))
		putUint(uint32(f[1]))
		putUint(uint32(f[2]))
	}
	return buf
}

func buildDocument(m *mesh.MeshData, bufferLen int) *gltfDocument {
	positionsLen := len(m.Vertices) * 12
	indicesLen := len(m.Faces) * 12

	minB, maxB := positionBounds(m)

	return &gltfDocument{
		Asset: gltfAsset{Version: "2.0", Generator: "meshforge"},
		Scene: 0,
		Scenes: []gltfScene{
			{Nodes: []int{0}},
		},
		Nodes:  []gltfNode{{Mesh: 0}},
		Meshes: []gltfMesh{{Primitives: []gltfPrimitive{{Attributes: map[string]int{"POSITION": 0}, Indices: 1, Mode: modeTriangles}}}},
		Buffers: []gltfBuffer{
			{ByteLength: bufferLen},
		},
		BufferViews: []gltfBufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: positionsLen, Target: targetArrayBuffer},
			{Buffer: 0, ByteOffset: positionsLen, ByteLength: indicesLen, Target: targetElementArray},
		},
		Accessors: []gltfAccessor{
			{BufferView: 0, ComponentType: componentFloat, Count: len(m.Vertices), Type: "VEC3", Min: minB, Max: maxB},
			{BufferView: 1, ComponentType: componentUnsignedInt, Count: len(m.Faces) * 3, Type: "SCALAR"},
		},
	}
}

// positionBounds computes accessor min/max over the position buffer,
// rounded through float32 to match the stored values.
func positionBounds(m *mesh.MeshData) (minB, maxB []float64) {
	if len(m.Vertices) == 0 {
		return nil, nil
	}
	minB = make([]float64, 3)
	maxB = make([]float64, 3)
	for i := 0; i < 3; i++ {
		minB[i] = math.Inf(1)
		maxB[i] = math.Inf(-1)
	}
	for _, v := range m.Vertices {
		for i := 0; i < 3; i++ {
			c := float64(float32(v[i]))
			if c < minB[i] {
				minB[i] = c
			}
			if c > maxB[i] {
				maxB[i] = c
			}
		}
	}
	return minB, maxB
}

// writeGLB writes the binary container: a 12-byte header, a JSON chunk
// padded with spaces to 4-byte alignment, and a BIN chunk padded with
// zeros.
func writeGLB(w io.Writer, doc *gltfDocument, buffer []byte) error {
	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	jsonPadded := pad(jsonBytes, ' ')
	binPadded := pad(buffer, 0)

	total := 12 + 8 + len(jsonPadded) + 8 + len(binPadded)

	var out bytes.Buffer
	header := []uint32{glbMagic, glbVersion, uint32(total)}
	for _, v := range header {
		if err := binary.Write(&out, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	binary.Write(&out, binary.LittleEndian, uint32(len(jsonPadded)))
	binary.Write(&out, binary.LittleEndian, uint32(glbChunkJSON))
	out.Write(jsonPadded)

	binary.Write(&out, binary.LittleEndian, uint32(len(binPadded)))
	binary.Write(&out, binary.LittleEndian, uint32(glbChunkBIN))
	out.Write(binPadded)

	_, err = w.Write(out.Bytes())
	return err
}

func pad(b []byte, fill byte) []byte {
	rem := len(b) % 4
	if rem == 0 {
		return b
	}
	padded := make([]byte, len(b), len(b)+4-rem)
	copy(padded, b)
	for i := 0; i < 4-rem; i++ {
		padded = append(padded, fill)
	}
	return padded
}
