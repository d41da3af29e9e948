package isofs

import (
	"fmt"
	"io"

	"github.com/disclens/isofs/internal/codec"
	"github.com/disclens/isofs/internal/descriptor"
	"github.com/disclens/isofs/internal/directory"
	"github.com/disclens/isofs/internal/logging"
	"github.com/disclens/isofs/internal/susp"
	"github.com/disclens/isofs/internal/susp/rockridge"
)

// Open scans the volume descriptor set starting at sector 16, selects a
// variant (Joliet, Rock Ridge, or plain ISO9660, in that priority order
// unless WithPreferJoliet(false) is given), and resolves the tree's root
// entry. r must support random-access reads across the whole image; size
// is the image's total readable length in bytes.
//
// Grounded on ISO9660Image.Open/Parse in iso.go, generalized: the teacher
// can finish Parse() holding a non-Joliet supplementary descriptor without
// recording that Joliet was rejected (the REDESIGN FLAG bug SPEC_FULL.md
// calls out); Open here always checks the escape sequence before
// accepting the Joliet branch and records the outcome on Context.Variant.
func Open(r io.ReaderAt, size int64, opts ...Option) (*Context, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	set, err := descriptor.Scan(r, size)
	if err != nil {
		return nil, err
	}

	variant, enc, susp := selectVariant(set, r, options)
	options.logger.V(logging.DEBUG).Info("selected iso9660 variant", "variant", variant.String())

	ctx := &Context{
		reader:           r,
		size:             size,
		logger:           options.logger,
		options:          options,
		descriptors:      set,
		variant:          variant,
		encoding:         enc,
		suspDetected:     susp.detected,
		suspSkipBytes:    susp.skipBytes,
		rockRidgeID:      susp.rockRidgeID,
		suspExtensionIDs: susp.extensions,
	}

	if _, err := ctx.Root(); err != nil {
		return nil, fmt.Errorf("resolving root directory: %w", err)
	}
	return ctx, nil
}

// Detect reports whether r looks like an ECMA-119 image without doing a
// full Open: it requires at least one readable sector at 0x8000 (LBA 16)
// and checks that sector's standard identifier equals "CD001", per
// spec.md §4.8/§8 property 1 (Detect and Open must agree on the standard-id
// check). It does not validate the rest of the descriptor set.
func Detect(r io.ReaderAt, size int64) bool {
	const firstSector = 16
	if size < (firstSector+1)*descriptor.SectorSize {
		return false
	}
	sector := make([]byte, descriptor.SectorSize)
	if _, err := r.ReadAt(sector, firstSector*descriptor.SectorSize); err != nil {
		return false
	}
	hdr, err := descriptor.ParseHeader(sector)
	if err != nil {
		return false
	}
	return hdr.Identifier == descriptor.StandardIdentifier
}

// selectVariant decides which extension's directory tree to read from.
// A Joliet candidate only counts if ParseCommon already confirmed its
// escape sequence (descriptor.Common.IsJoliet); a Rock Ridge candidate
// only counts if the root directory's self record opens with an SP marker
// and carries an ER entry naming one of the recognized Rock Ridge
// identifiers, or failing that a legacy RR entry or direct PX/NM/TF
// entries.
func selectVariant(set *descriptor.Set, r io.ReaderAt, options Options) (Variant, codec.Encoding, suspState) {
	hasJoliet := false
	for _, svd := range set.Supplementary {
		if svd.IsJoliet {
			hasJoliet = true
			break
		}
	}

	var state suspState
	if options.rockRidgeEnabled {
		// The root directory record embedded in the volume descriptor
		// (set.Primary.RootDirectory) is fixed at 34 bytes by ECMA-119
		// and can never itself carry system-use data; the SP/ER entries
		// spec.md §4.4 asks for live on the root directory's own "."
		// self record, read fresh from its extent.
		if self, err := readRootSelfRecord(set.Primary.RootDirectory, r); err == nil {
			state = detectSUSP(self, r)
		}
	}

	order := []Variant{VariantJoliet, VariantRockRidge, VariantISO9660}
	if !options.preferJoliet {
		order = []Variant{VariantRockRidge, VariantJoliet, VariantISO9660}
	}

	for _, v := range order {
		switch v {
		case VariantJoliet:
			if hasJoliet {
				return VariantJoliet, codec.UCS2BE, state
			}
		case VariantRockRidge:
			if state.rockRidge {
				return VariantRockRidge, codec.ASCII, state
			}
		case VariantISO9660:
			return VariantISO9660, codec.ASCII, state
		}
	}
	return VariantISO9660, codec.ASCII, state
}

// readRootSelfRecord re-reads the root directory's own "." self record from
// its extent, as opposed to the 34-byte copy embedded in the volume
// descriptor: only the former can carry the system-use data SUSP/Rock
// Ridge detection needs, since ECMA-119 caps the embedded copy at exactly
// 34 bytes (no room for a system-use area).
func readRootSelfRecord(root *directory.Record, r io.ReaderAt) (*directory.Record, error) {
	if root == nil {
		return nil, fmt.Errorf("no root directory record")
	}
	return readSelfRecordAt(root.ExtentLBA, r)
}

// readSelfRecordAt reads the "." self record at the start of the extent
// beginning at lba. Used both for the root directory (readRootSelfRecord)
// and to recover the true data length of a Rock Ridge CL-relocated
// directory, whose placeholder record in its original location carries no
// reliable length of its own (see rockridge.ParseRelocation and
// isofs.applyRockRidge).
func readSelfRecordAt(lba uint32, r io.ReaderAt) (*directory.Record, error) {
	buf := make([]byte, descriptor.SectorSize)
	off := int64(lba) * descriptor.SectorSize
	if _, err := r.ReadAt(buf, off); err != nil {
		return nil, fmt.Errorf("reading directory extent at offset %d: %w", off, err)
	}
	length := int(buf[0])
	if length == 0 || length > len(buf) {
		return nil, fmt.Errorf("invalid self record length %d", length)
	}
	return directory.Unmarshal(buf[:length], codec.ASCII)
}

// suspState is the per-image SUSP/Rock Ridge state discovered from the root
// directory's self record, per spec.md's C5 container.
type suspState struct {
	detected    bool
	skipBytes   int
	rockRidge   bool
	rockRidgeID string
	extensions  []string
}

// detectSUSP inspects the root directory record's system-use area: first
// for the SP marker (spec.md §4.4's SUSP-presence gate), then for an ER
// entry naming a Rock Ridge identifier. Some encoders omit the ER entry
// and only emit PX/NM/TF directly; that's treated as a Rock Ridge signal
// too, the same fallback iso-kit's SystemUseEntries.HasRockRidge uses (its
// TODO comment flags this as a workaround for encoders that don't emit ER
// — this repo keeps that workaround rather than the strict-ER-only
// reading of SUSP).
func detectSUSP(root *directory.Record, r io.ReaderAt) suspState {
	var st suspState
	if root == nil || len(root.SystemUse) == 0 {
		return st
	}
	entries, err := susp.Parse(root.SystemUse, r)
	if err != nil {
		return st
	}

	skip, ok := susp.DetectSharingProtocol(entries)
	if !ok {
		return st
	}
	st.detected = true
	st.skipBytes = skip

	var sawLegacyRR bool
	for _, e := range entries {
		switch e.Tag {
		case "ER":
			if id, ok := extensionIdentifier(e.Payload); ok {
				if rockridge.IsRockRidgeIdentifier(id) {
					st.rockRidge = true
					st.rockRidgeID = id
				} else {
					st.extensions = append(st.extensions, id)
				}
			}
		case "RR":
			sawLegacyRR = true
		}
	}
	if !st.rockRidge && sawLegacyRR {
		st.rockRidge = true
		st.rockRidgeID = rockridge.IdentifierRRIP1991A
	}

	if !st.rockRidge {
		for _, e := range entries {
			switch e.Tag {
			case "PX", "NM", "TF":
				st.rockRidge = true
			}
		}
	}
	return st
}

// extensionIdentifier decodes an ER entry's LEN_ID/LEN_DES/LEN_SRC/EXT_VER
// header (SUSP 5.1) and returns the identifier string.
func extensionIdentifier(payload []byte) (string, bool) {
	if len(payload) < 4 {
		return "", false
	}
	idLen := int(payload[0])
	if 4+idLen > len(payload) {
		return "", false
	}
	return string(payload[4 : 4+idLen]), true
}
