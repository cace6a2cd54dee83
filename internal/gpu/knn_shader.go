package gpu

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/template"
)

// knnShaderTemplate is the WGSL compute kernel. The window is unrolled at
// generation time: naga SPIR-V output currently executes only the first
// iteration of shader loops.
//
// Bindings:
//
//	0: uniform KnnParams
//	1: storage, read       RGBA float texels, row-major
//	2: storage, read_write packed output pixels
var knnShaderTemplate = template.Must(template.New("knn").Parse(`// Generated KNN denoise kernel: radius {{.Radius}}, {{if .Diagnostic}}diagnostic{{else}}filter{{end}} mode.

struct KnnParams {
    width: u32,
    height: u32,
    noise_scale: f32,
    lerp_base: f32,
    weight_threshold: f32,
    lerp_threshold: f32,
    area: u32,
    address_mode: u32,
    filter_mode: u32,
    _pad0: u32,
    _pad1: u32,
    _pad2: u32,
}

@group(0) @binding(0) var<uniform> params: KnnParams;
@group(0) @binding(1) var<storage, read> texels: array<vec4<f32>>;
@group(0) @binding(2) var<storage, read_write> pixels: array<u32>;

fn resolve_index(i: i32, n: i32) -> i32 {
    if params.address_mode == 1u {
        var r = i % n;
        if r < 0 {
            r = r + n;
        }
        return r;
    }
    if params.address_mode == 2u {
        let period = 2 * n;
        var r = i % period;
        if r < 0 {
            r = r + period;
        }
        if r >= n {
            r = period - 1 - r;
        }
        return r;
    }
    return clamp(i, 0, n - 1);
}

fn texel(x: i32, y: i32) -> vec4<f32> {
    let w = i32(params.width);
    let h = i32(params.height);
    let idx = resolve_index(y, h) * w + resolve_index(x, w);
    return texels[u32(idx)];
}

fn sample_texture(x: f32, y: f32) -> vec4<f32> {
    if params.filter_mode == 1u {
        return texel(i32(floor(x)), i32(floor(y)));
    }
    let fx = x - 0.5;
    let fy = y - 0.5;
    let x0 = floor(fx);
    let y0 = floor(fy);
    let tx = fx - x0;
    let ty = fy - y0;
    let ix = i32(x0);
    let iy = i32(y0);
    let c00 = texel(ix, iy);
    let c10 = texel(ix + 1, iy);
    let c01 = texel(ix, iy + 1);
    let c11 = texel(ix + 1, iy + 1);
    let top = c00 + (c10 - c00) * tx;
    let bottom = c01 + (c11 - c01) * tx;
    return top + (bottom - top) * ty;
}

fn color_dist2(a: vec4<f32>, b: vec4<f32>) -> f32 {
    let d = b.rgb - a.rgb;
    return dot(d, d);
}

fn quantize(v: f32) -> u32 {
    return u32(clamp(v, 0.0, 1.0) * 255.0 + 0.5);
}

@compute @workgroup_size({{.WorkgroupSize}}, {{.WorkgroupSize}}, 1)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    if id.x >= params.width || id.y >= params.height {
        return;
    }

    let cx = f32(id.x) + 0.5;
    let cy = f32(id.y) + 0.5;
    let c0 = sample_texture(cx, cy);
{{if not .Diagnostic}}
    var sum_color = vec3<f32>(0.0, 0.0, 0.0);
    var sum_weight: f32 = 0.0;
{{- end}}
    var matches: u32 = 0u;
{{range .Offsets}}
    {
        let c = sample_texture(cx + ({{.DJ}}), cy + ({{.DI}}));
        let w = exp(-(color_dist2(c0, c) * params.noise_scale + {{.Spatial}}));
{{- if not $.Diagnostic}}
        sum_color = sum_color + c.rgb * w;
        sum_weight = sum_weight + w;
{{- end}}
        matches = matches + select(0u, 1u, w > params.weight_threshold);
    }
{{- end}}

    let fraction = f32(matches) / f32(params.area);
    let is_flat = fraction > params.lerp_threshold;
{{if .Diagnostic}}
    let q = select(0.0, 1.0, is_flat);
    let result = vec3<f32>(q, 0.0, 1.0 - q);
{{- else}}
    let avg = sum_color / sum_weight;
    let q = select(1.0 - params.lerp_base, params.lerp_base, is_flat);
    let result = avg + (c0.rgb - avg) * q;
{{- end}}

    pixels[id.y * params.width + id.x] = quantize(result.r) | (quantize(result.g) << 8u) | (quantize(result.b) << 16u);
}
`))

// WorkgroupSize is the edge length of the 2D compute workgroup.
const WorkgroupSize = 8

type shaderOffset struct {
	DI, DJ  string
	Spatial string
}

type shaderData struct {
	Radius        int
	Diagnostic    bool
	WorkgroupSize int
	Offsets       []shaderOffset
}

// GenerateKNNShader returns WGSL for a window of the given radius. The
// spatial terms are baked in as float32 literals matching the CPU kernel.
func GenerateKNNShader(radius int, diagnostic bool) (string, error) {
	if radius < 0 {
		return "", fmt.Errorf("knn shader: negative radius %d", radius)
	}

	diameter := 2*radius + 1
	area := diameter * diameter
	invArea := 1 / float32(area)

	data := shaderData{
		Radius:        radius,
		Diagnostic:    diagnostic,
		WorkgroupSize: WorkgroupSize,
		Offsets:       make([]shaderOffset, 0, area),
	}
	for i := -radius; i <= radius; i++ {
		for j := -radius; j <= radius; j++ {
			data.Offsets = append(data.Offsets, shaderOffset{
				DI:      wgslFloat(float32(i)),
				DJ:      wgslFloat(float32(j)),
				Spatial: wgslFloat(float32(i*i+j*j) * invArea),
			})
		}
	}

	var buf bytes.Buffer
	if err := knnShaderTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("knn shader: %w", err)
	}
	return buf.String(), nil
}

// wgslFloat formats v as a WGSL f32 literal that round-trips exactly.
func wgslFloat(v float32) string {
	s := strconv.FormatFloat(float64(v), 'g', -1, 32)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
