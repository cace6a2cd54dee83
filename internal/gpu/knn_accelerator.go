//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/denoise"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// maxStorageBytes is the largest storage binding requested from the device.
// It matches the default WebGPU limit for maxStorageBufferBindingSize.
const maxStorageBytes = 128 << 20

// paramsSize is the byte size of the KnnParams uniform.
const paramsSize = 48

// fenceTimeout bounds the wait for one dispatch.
const fenceTimeout = 5 * time.Second

var errNoGPU = errors.New("knn-gpu: GPU not initialized")

// pipelineKey identifies one generated shader variant.
type pipelineKey struct {
	radius     int
	diagnostic bool
}

type knnPipeline struct {
	shader   hal.ShaderModule
	pipeline hal.ComputePipeline
}

// KNNAccelerator runs the denoise kernel as a wgpu/hal compute shader.
// It implements denoise.Accelerator.
//
// One shader variant is compiled per (radius, mode) pair on first use and
// cached until Close.
type KNNAccelerator struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipelines  map[pipelineKey]*knnPipeline

	gpuReady       bool
	externalDevice bool // shared device, not destroyed on Close
}

var _ denoise.Accelerator = (*KNNAccelerator)(nil)

// Name implements denoise.Accelerator.
func (a *KNNAccelerator) Name() string { return "knn-gpu" }

// SetLogger routes accelerator logs to l.
func (a *KNNAccelerator) SetLogger(l *slog.Logger) { setLogger(l) }

// Init opens a Vulkan device. It fails when no adapter is usable, so the
// accelerator is never registered without a GPU behind it.
func (a *KNNAccelerator) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gpuReady {
		return nil
	}
	if err := a.initGPU(); err != nil {
		a.releaseLocked()
		return fmt.Errorf("knn-gpu: init: %w", err)
	}
	return nil
}

// Close releases all GPU resources.
func (a *KNNAccelerator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.releaseLocked()
}

// Ready reports whether a device is open.
func (a *KNNAccelerator) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gpuReady
}

func (a *KNNAccelerator) releaseLocked() {
	a.destroyPipelines()
	if !a.externalDevice {
		if a.device != nil {
			a.device.Destroy()
		}
		if a.instance != nil {
			a.instance.Destroy()
		}
	}
	a.device = nil
	a.instance = nil
	a.queue = nil
	a.gpuReady = false
	a.externalDevice = false
}

// SetDeviceProvider switches the accelerator to a shared GPU device. The
// provider must implement HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue.
func (a *KNNAccelerator) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("knn-gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("knn-gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("knn-gpu: provider HalQueue is not hal.Queue")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.releaseLocked()
	a.device = device
	a.queue = queue
	a.externalDevice = true

	if err := a.createLayouts(); err != nil {
		a.releaseLocked()
		return fmt.Errorf("knn-gpu: create layouts with shared device: %w", err)
	}
	a.gpuReady = true
	slogger().Info("knn-gpu: switched to shared GPU device")
	return nil
}

// Run implements denoise.Accelerator.
func (a *KNNAccelerator) Run(req denoise.AccelRequest) error {
	if err := checkRequest(req); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.gpuReady {
		return denoise.ErrFallbackToCPU
	}

	p, err := a.pipelineFor(pipelineKey{
		radius:     req.Kernel.Radius,
		diagnostic: req.Mode == denoise.ModeDiagnostic,
	})
	if err != nil {
		return err
	}
	return a.dispatch(p, req)
}

// checkRequest rejects requests the shader cannot serve.
func checkRequest(req denoise.AccelRequest) error {
	switch req.Address {
	case denoise.AddressClamp, denoise.AddressWrap, denoise.AddressMirror:
	default:
		return denoise.ErrFallbackToCPU
	}
	switch req.Filter {
	case denoise.FilterBilinear, denoise.FilterNearest:
	default:
		return denoise.ErrFallbackToCPU
	}
	switch req.Mode {
	case denoise.ModeFilter, denoise.ModeDiagnostic:
	default:
		return denoise.ErrFallbackToCPU
	}

	n := req.Width * req.Height
	if n <= 0 || uint64(n)*16 > maxStorageBytes {
		return denoise.ErrFallbackToCPU
	}
	if len(req.Dst) != n || len(req.Source) < n*4 {
		return denoise.ErrFallbackToCPU
	}
	return nil
}

func (a *KNNAccelerator) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	a.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	a.device = openDev.Device
	a.queue = openDev.Queue

	if err := a.createLayouts(); err != nil {
		return fmt.Errorf("create layouts: %w", err)
	}
	a.gpuReady = true
	slogger().Info("knn-gpu: GPU accelerator initialized", "adapter", selected.Info.Name)
	return nil
}

func (a *KNNAccelerator) createLayouts() error {
	bindLayout, err := a.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "knn_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	a.bindLayout = bindLayout

	pipeLayout, err := a.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "knn_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{a.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	a.pipeLayout = pipeLayout
	a.pipelines = make(map[pipelineKey]*knnPipeline)
	return nil
}

// pipelineFor returns the cached pipeline for key, compiling it on first use.
func (a *KNNAccelerator) pipelineFor(key pipelineKey) (*knnPipeline, error) {
	if p, ok := a.pipelines[key]; ok {
		return p, nil
	}

	spirv, err := CompileKNNShader(key.radius, key.diagnostic)
	if err != nil {
		return nil, err
	}

	shader, err := a.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "knn_shader",
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return nil, fmt.Errorf("knn-gpu: create shader module: %w", err)
	}

	pipeline, err := a.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "knn_pipeline", Layout: a.pipeLayout,
		Compute: hal.ComputeState{Module: shader, EntryPoint: "main"},
	})
	if err != nil {
		a.device.DestroyShaderModule(shader)
		return nil, fmt.Errorf("knn-gpu: create compute pipeline: %w", err)
	}

	p := &knnPipeline{shader: shader, pipeline: pipeline}
	a.pipelines[key] = p
	slogger().Debug("knn-gpu: pipeline compiled", "radius", key.radius, "diagnostic", key.diagnostic)
	return p, nil
}

// CompileKNNShader generates the WGSL variant and compiles it to SPIR-V words.
func CompileKNNShader(radius int, diagnostic bool) ([]uint32, error) {
	src, err := GenerateKNNShader(radius, diagnostic)
	if err != nil {
		return nil, err
	}
	spirvBytes, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("knn-gpu: compile shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("knn-gpu: SPIR-V length %d is not word aligned", len(spirvBytes))
	}

	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return words, nil
}

func (a *KNNAccelerator) destroyPipelines() {
	if a.device == nil {
		return
	}
	for key, p := range a.pipelines {
		a.device.DestroyComputePipeline(p.pipeline)
		a.device.DestroyShaderModule(p.shader)
		delete(a.pipelines, key)
	}
	if a.pipeLayout != nil {
		a.device.DestroyPipelineLayout(a.pipeLayout)
		a.pipeLayout = nil
	}
	if a.bindLayout != nil {
		a.device.DestroyBindGroupLayout(a.bindLayout)
		a.bindLayout = nil
	}
}

// dispatch uploads the texels, runs one compute pass and reads back the
// packed result into req.Dst.
func (a *KNNAccelerator) dispatch(p *knnPipeline, req denoise.AccelRequest) error {
	if a.device == nil || a.queue == nil {
		return errNoGPU
	}

	w, h := uint32(req.Width), uint32(req.Height) //nolint:gosec // bounded by maxStorageBytes
	pixelCount := int(w * h)
	texelBytes := packTexels(req.Source[:pixelCount*4])
	pixelBufSize := uint64(pixelCount * 4)

	paramsBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "knn_params", Size: paramsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create params buffer: %w", err)
	}
	defer a.device.DestroyBuffer(paramsBuf)

	texelBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "knn_texels", Size: uint64(len(texelBytes)),
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create texel buffer: %w", err)
	}
	defer a.device.DestroyBuffer(texelBuf)

	pixelBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "knn_pixels", Size: pixelBufSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create pixel buffer: %w", err)
	}
	defer a.device.DestroyBuffer(pixelBuf)

	stagingBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "knn_staging", Size: pixelBufSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create staging buffer: %w", err)
	}
	defer a.device.DestroyBuffer(stagingBuf)

	a.queue.WriteBuffer(paramsBuf, 0, packParams(req))
	a.queue.WriteBuffer(texelBuf, 0, texelBytes)

	bindGroup, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "knn_bind", Layout: a.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: paramsBuf.NativeHandle(), Offset: 0, Size: paramsSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: texelBuf.NativeHandle(), Offset: 0, Size: uint64(len(texelBytes))}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: pixelBuf.NativeHandle(), Offset: 0, Size: pixelBufSize}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	defer a.device.DestroyBindGroup(bindGroup)

	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "knn_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	discard := func() { encoder.DiscardEncoding() }
	if err := discardOnError(encoder.BeginEncoding("knn"), discard); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "knn_pass"})
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.Dispatch((w+WorkgroupSize-1)/WorkgroupSize, (h+WorkgroupSize-1)/WorkgroupSize, 1)
	pass.End()

	encoder.CopyBufferToBuffer(pixelBuf, stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: pixelBufSize},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err := discardOnError(err, discard); err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer a.device.FreeCommandBuffer(cmdBuf)

	fence, err := a.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer a.device.DestroyFence(fence)

	if err := a.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := a.device.Wait(fence, 1, fenceTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}

	readback := make([]byte, pixelBufSize)
	if err := a.queue.ReadBuffer(stagingBuf, 0, readback); err != nil {
		return fmt.Errorf("readback: %w", err)
	}
	unpackPixels(readback, req.Dst)

	slogger().Debug("knn-gpu: dispatched",
		"width", w, "height", h, "radius", req.Kernel.Radius, "mode", req.Mode)
	return nil
}

// discardOnError calls discard when err is non-nil and returns err.
func discardOnError(err error, discard func()) error {
	if err != nil {
		discard()
	}
	return err
}

// packParams serializes the KnnParams uniform.
func packParams(req denoise.AccelRequest) []byte {
	area := uint32((2*req.Kernel.Radius + 1) * (2*req.Kernel.Radius + 1)) //nolint:gosec // radius is bounded

	out := make([]byte, paramsSize)
	le := binary.LittleEndian
	le.PutUint32(out[0:], uint32(req.Width))  //nolint:gosec // validated by checkRequest
	le.PutUint32(out[4:], uint32(req.Height)) //nolint:gosec // validated by checkRequest
	le.PutUint32(out[8:], math.Float32bits(req.Params.NoiseScale))
	le.PutUint32(out[12:], math.Float32bits(req.Params.LerpBase))
	le.PutUint32(out[16:], math.Float32bits(req.Kernel.WeightThreshold))
	le.PutUint32(out[20:], math.Float32bits(req.Kernel.LerpThreshold))
	le.PutUint32(out[24:], area)
	le.PutUint32(out[28:], uint32(req.Address)) //nolint:gosec // small enum
	le.PutUint32(out[32:], uint32(req.Filter))  //nolint:gosec // small enum
	return out
}

// packTexels serializes float32 texels little-endian.
func packTexels(src []float32) []byte {
	out := make([]byte, len(src)*4)
	for i, v := range src {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func unpackPixels(packed []byte, dst []uint32) {
	for i := range dst {
		dst[i] = binary.LittleEndian.Uint32(packed[i*4:])
	}
}
