// Package signature implements the signature-evidence analyzer from spec
// §4.10: PEM envelope decoding, a DER top-level SEQUENCE predicate, an OID
// needle search, and ext-specific strict-route evidence rules.
package signature

import (
	"regexp"

	"github.com/saferun/adaptcore/internal/analyzers/shared"
	"github.com/saferun/adaptcore/internal/byteio"
	"github.com/saferun/adaptcore/internal/parsers/sigfmt"
	"github.com/saferun/adaptcore/internal/pipeline"
	"github.com/saferun/adaptcore/internal/textmark"
)

// AdapterID identifies this adapter in AdapterMeta/AdapterSummary output.
const AdapterID = "signature_adapter_v1"

const headWindow = 256 * 1024

var supportedExts = map[string]bool{
	".cer": true, ".crt": true, ".pem": true, ".p7b": true, ".sig": true,
}

const derStrongMinSize = 128

var (
	reTimestampHint = regexp.MustCompile(`(?i)(timestamp|tsa|countersignature)`)
	reChainHint     = regexp.MustCompile(`(?i)(certificate-chain|intermediate|root-ca)`)
)

// Analyze runs the signature adapter against req.
func Analyze(req pipeline.Request) pipeline.RunResult {
	if !supportedExts[req.Ext] {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFail("SIGNATURE_UNSUPPORTED_FORMAT", "input extension is not a supported signature format"), nil)
		}
		return pipeline.NoOp()
	}

	head, err := byteio.ReadHead(req.Path, headWindow)
	if err != nil {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFailWrap("SIGNATURE_FORMAT_MISMATCH", "signature input could not be read", err), nil)
		}
		return pipeline.NoOp()
	}
	size, _ := byteio.FileSize(req.Path)

	pemRes := sigfmt.ScanPEM(head)
	derRes := sigfmt.ParseDERSequence(head, size)
	oidRes := sigfmt.ScanOIDs(head)
	text, _ := textmark.ToBoundedText(head)

	derStrong := derRes.Valid && oidRes.X509NameCount > 0 && size >= derStrongMinSize
	cmsOIDHit := oidRes.SignedDataCount > 0

	evidenceOK := true
	switch req.Ext {
	case ".cer", ".crt":
		evidenceOK = pemRes.HasValidLabel(sigfmt.LabelCertificate) || derStrong
	case ".p7b":
		evidenceOK = pemRes.HasValidLabel(sigfmt.LabelPKCS7) || cmsOIDHit
	case ".sig":
		evidenceOK = pemRes.HasValidLabel(sigfmt.LabelSignature) || cmsOIDHit
	case ".pem":
		evidenceOK = pemRes.ValidCount > 0 || derStrong || cmsOIDHit
	}

	if req.Strict && !evidenceOK {
		return pipeline.Fail(pipeline.NewFail("SIGNATURE_FORMAT_MISMATCH", "input carries no recognizable signature evidence for its extension"), nil)
	}

	signerPresent := pemRes.ValidCount > 0 || derStrong
	chainPresent := pemRes.CertificateCount >= 2 || textmark.AnyMatch(reChainHint, text)
	timestampPresent := oidRes.TimestampingEKUCount > 0 || textmark.AnyMatch(reTimestampHint, text)

	counts := map[string]int64{
		"pemEnvelopeValidCount":   int64(pemRes.ValidCount),
		"pemEnvelopeInvalidCount": int64(pemRes.InvalidCount),
		"pemCertificateCount":     int64(pemRes.CertificateCount),
		"derSequenceValid":        boolInt(derRes.Valid),
		"signedDataOidCount":      int64(oidRes.SignedDataCount),
		"timestampingEkuOidCount": int64(oidRes.TimestampingEKUCount),
		"x509NameOidCount":        int64(oidRes.X509NameCount),
	}

	reasonCodes := []string{"SIGNATURE_EVIDENCE_V1"}
	if signerPresent {
		reasonCodes = append(reasonCodes, "SIGNER_PRESENT")
	}
	if chainPresent {
		reasonCodes = append(reasonCodes, "CHAIN_PRESENT")
	}
	if timestampPresent {
		reasonCodes = append(reasonCodes, "TIMESTAMP_PRESENT")
	}

	var markers []string
	if !evidenceOK {
		markers = append(markers, "SIGNATURE_EVIDENCE_ABSENT")
	}

	summary := shared.BuildSummary(AdapterID, "signature", req.Ext, pipeline.ModeBuiltIn, counts, markers, reasonCodes)
	findingsOut := shared.BuildFindings(AdapterID, "signature", nil, markers)
	meta := shared.Meta(AdapterID, req.Ext, pipeline.ModeBuiltIn, reasonCodes)

	return pipeline.Ok(reasonCodes, meta, summary, findingsOut, nil)
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
