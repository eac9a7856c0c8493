// Package image implements the disk-image analyzer from spec §4.9: ISO
// 9660 volume descriptors and the VHD/VHDX/VMDK/QCOW2 structural gates.
package image

import (
	"github.com/saferun/adaptcore/internal/analyzers/shared"
	"github.com/saferun/adaptcore/internal/byteio"
	"github.com/saferun/adaptcore/internal/parsers/diskfmt"
	"github.com/saferun/adaptcore/internal/parsers/isofmt"
	"github.com/saferun/adaptcore/internal/pipeline"
)

// AdapterID identifies this adapter in AdapterMeta/AdapterSummary output.
const AdapterID = "image_adapter_v1"

const headWindow = 64 * 1024
const tailWindow = 1024

var supportedExts = map[string]bool{
	".iso": true, ".vhd": true, ".vhdx": true, ".vmdk": true, ".qcow2": true,
}

// Analyze runs the image adapter against req.
func Analyze(req pipeline.Request) pipeline.RunResult {
	if !supportedExts[req.Ext] {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFail("IMAGE_UNSUPPORTED_FORMAT", "input extension is not a supported disk-image format"), nil)
		}
		return pipeline.NoOp()
	}

	head, err := byteio.ReadHead(req.Path, headWindow)
	if err != nil {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFailWrap("IMAGE_FORMAT_MISMATCH", "image could not be read", err), nil)
		}
		return pipeline.NoOp()
	}
	tail, terr := byteio.ReadTail(req.Path, tailWindow)
	if terr != nil {
		tail = nil
	}
	size, _ := byteio.FileSize(req.Path)

	switch req.Ext {
	case ".iso":
		return finishISO(req, head)
	case ".vhd":
		return finishVHD(req, tail, size)
	case ".vhdx":
		return finishVHDX(req, head, size)
	case ".qcow2":
		return finishQCOW2(req, head, size)
	default: // .vmdk
		return finishVMDK(req, head, size)
	}
}

func finishISO(req pipeline.Request, head []byte) pipeline.RunResult {
	res := isofmt.Parse(head)
	if req.Strict && !res.Valid {
		return pipeline.Fail(pipeline.NewFail("IMAGE_FORMAT_MISMATCH", "ISO 9660 volume descriptors did not validate"), nil)
	}
	counts := map[string]int64{
		"primaryVolumeDescriptorValid": boolInt(res.PVDValid),
		"terminatorValid":              boolInt(res.TerminatorValid),
	}
	return finish(req, ".iso", counts, !res.Valid)
}

func finishVHD(req pipeline.Request, tail []byte, size int64) pipeline.RunResult {
	if len(tail) > 512 {
		tail = tail[len(tail)-512:]
	}
	res := diskfmt.ParseVHD(tail, size)
	if req.Strict && !res.Valid {
		return pipeline.Fail(pipeline.NewFail("IMAGE_FORMAT_MISMATCH", "VHD footer cookie did not validate"), nil)
	}
	counts := map[string]int64{
		"cookieValid":    boolInt(res.CookieValid),
		"sizeAtLeastMin": boolInt(res.SizeAtLeastMin),
	}
	return finish(req, ".vhd", counts, !res.Valid)
}

func finishVHDX(req pipeline.Request, head []byte, size int64) pipeline.RunResult {
	res := diskfmt.ParseVHDX(head, size)
	if req.Strict && !res.Valid {
		return pipeline.Fail(pipeline.NewFail("IMAGE_FORMAT_MISMATCH", "VHDX signature did not validate"), nil)
	}
	counts := map[string]int64{
		"signatureValid": boolInt(res.SignatureValid),
		"sizeAtLeastMin": boolInt(res.SizeAtLeastMin),
	}
	return finish(req, ".vhdx", counts, !res.Valid)
}

func finishQCOW2(req pipeline.Request, head []byte, size int64) pipeline.RunResult {
	res := diskfmt.ParseQCOW2(head, size)
	if req.Strict && !res.Valid {
		return pipeline.Fail(pipeline.NewFail("IMAGE_FORMAT_MISMATCH", "QCOW2 magic/version did not validate"), nil)
	}
	counts := map[string]int64{
		"magicValid":     boolInt(res.MagicValid),
		"versionValid":   boolInt(res.VersionValid),
		"sizeAtLeastMin": boolInt(res.SizeAtLeastMin),
	}
	return finish(req, ".qcow2", counts, !res.Valid)
}

func finishVMDK(req pipeline.Request, head []byte, size int64) pipeline.RunResult {
	res := diskfmt.ParseVMDK(head, size)
	if req.Strict && !res.Valid {
		return pipeline.Fail(pipeline.NewFail("IMAGE_FORMAT_MISMATCH", "VMDK descriptor markers and sparse magic were both absent"), nil)
	}
	counts := map[string]int64{
		"descriptorValid":  boolInt(res.DescriptorValid),
		"sparseMagicCount": int64(res.SparseMagicCount),
		"sizeAtLeastMin":   boolInt(res.SizeAtLeastMin),
	}
	return finish(req, ".vmdk", counts, !res.Valid)
}

func finish(req pipeline.Request, format string, counts map[string]int64, mismatch bool) pipeline.RunResult {
	reasonCodes := []string{"IMAGE_ADAPTER_V1"}
	var markers []string
	if mismatch {
		markers = append(markers, "IMAGE_STRUCTURAL_PARTIAL")
	}

	summary := shared.BuildSummary(AdapterID, "image", format, pipeline.ModeBuiltIn, counts, markers, reasonCodes)
	findingsOut := shared.BuildFindings(AdapterID, "image", nil, markers)
	meta := shared.Meta(AdapterID, format, pipeline.ModeBuiltIn, reasonCodes)

	return pipeline.Ok(reasonCodes, meta, summary, findingsOut, nil)
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
