// Package gpu runs the KNN denoise kernel as a WebGPU compute shader.
//
// The kernel is generated as WGSL with the sample window unrolled,
// compiled to SPIR-V by gogpu/naga and dispatched through gogpu/wgpu/hal.
// KNNAccelerator implements denoise.Accelerator; the public gogpu/denoise/gpu
// package registers it.
//
// Each dispatch uploads the float texels of a denoise.Image into a storage
// buffer, so the shader reproduces the sampler of the CPU path (bilinear or
// nearest filtering, clamp, wrap or mirror addressing) on raw texel data.
// Results are read back as packed pixels identical in layout to
// denoise.Buffer.
//
// Build with -tags nogpu to exclude the accelerator; only the shader
// generator remains.
package gpu
