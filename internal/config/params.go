package config

// Params is the inbound parameter tree for a single compute request.
// The schema matches the body of POST /api/calculate/{instrument} so the same
// JSON can be used from a file with cmd/sans-calc or over HTTP.
//
// Optional scalars are pointers. Each section exposes Get* accessors that
// take the instrument variant's default, since the defaults differ per
// instrument.
type Params struct {
	Wavelength  *Wavelength  `json:"wavelength,omitempty"`
	Collimation *Collimation `json:"collimation,omitempty"`
	Detectors   []Detector   `json:"detectors,omitempty"`
	BeamStops   []BeamStop   `json:"beam_stops,omitempty"`
	Data        *Data        `json:"data,omitempty"`
	Slicer      *Slicer      `json:"slicer,omitempty"`
	Model       *Model       `json:"model,omitempty"`

	// VSANS only
	Preset            *string   `json:"preset,omitempty"`
	Beam              *Beam     `json:"beam,omitempty"`
	MiddleCarriage    *Carriage `json:"middle_carriage,omitempty"`
	FrontCarriage     *Carriage `json:"front_carriage,omitempty"`
	MiddleLeftPanel   *Panel    `json:"middle_left_panel,omitempty"`
	MiddleRightPanel  *Panel    `json:"middle_right_panel,omitempty"`
	MiddleTopPanel    *Panel    `json:"middle_top_panel,omitempty"`
	MiddleBottomPanel *Panel    `json:"middle_bottom_panel,omitempty"`
	FrontLeftPanel    *Panel    `json:"front_left_panel,omitempty"`
	FrontRightPanel   *Panel    `json:"front_right_panel,omitempty"`
	FrontTopPanel     *Panel    `json:"front_top_panel,omitempty"`
	FrontBottomPanel  *Panel    `json:"front_bottom_panel,omitempty"`

	// no_instrument only
	QRange *QRange `json:"q_range,omitempty"`
}

// Wavelength is the monochromated beam description.
type Wavelength struct {
	Lambda      *float64 `json:"lambda,omitempty"`
	LambdaWidth *float64 `json:"lambda_width,omitempty"` // Δλ/λ
	Units       *string  `json:"units,omitempty"`        // length token for Lambda, default Å
}

// Beam is the VSANS beam section.
type Beam struct {
	Lambda        *float64 `json:"lambda,omitempty"`
	LambdaWidth   *float64 `json:"lambda_width,omitempty"`
	Units         *string  `json:"units,omitempty"`
	Monochromator *string  `json:"monochromator,omitempty"` // "velocity_selector" or "graphite"
}

// Aperture is a circular aperture. Diameter is in Units; Offset is in
// OffsetUnits (default cm).
type Aperture struct {
	Diameter    *float64 `json:"diameter,omitempty"`
	Units       *string  `json:"units,omitempty"`
	Offset      *float64 `json:"offset,omitempty"`
	OffsetUnits *string  `json:"offset_units,omitempty"`
}

// Guides is the neutron guide train.
type Guides struct {
	NumberOfGuides       *int     `json:"number_of_guides,omitempty"`
	LengthPerGuide       *float64 `json:"length_per_guide,omitempty"`
	GapAtStart           *float64 `json:"gap_at_start,omitempty"`
	GuideWidth           *float64 `json:"guide_width,omitempty"`
	TransmissionPerGuide *float64 `json:"transmission_per_guide,omitempty"`
	UsingLenses          *bool    `json:"using_lenses,omitempty"`
	MaximumLength        *float64 `json:"maximum_length,omitempty"`
}

// Collimation holds the SANS and VSANS collimation settings. SourceDistance
// is read by VSANS only.
type Collimation struct {
	SourceAperture *Aperture `json:"source_aperture,omitempty"`
	SampleAperture *Aperture `json:"sample_aperture,omitempty"`
	Guides         *Guides   `json:"guides,omitempty"`
	SSD            *float64  `json:"ssd,omitempty"`
	SampleSpace    *string   `json:"sample_space,omitempty"` // "Huber" or "Chamber"
	SourceDistance *float64  `json:"source_distance,omitempty"`
}

// Detector is one area detector. Lengths are in cm.
type Detector struct {
	SDD             *float64 `json:"sdd,omitempty"`
	Offset          *float64 `json:"offset,omitempty"`
	PixelSizeX      *float64 `json:"pixel_size_x,omitempty"`
	PixelSizeY      *float64 `json:"pixel_size_y,omitempty"`
	PixelSizeZ      *float64 `json:"pixel_size_z,omitempty"`
	PixelNoX        *int     `json:"pixel_no_x,omitempty"`
	PixelNoY        *int     `json:"pixel_no_y,omitempty"`
	PixelNoZ        *int     `json:"pixel_no_z,omitempty"`
	DeadTime        *float64 `json:"dead_time,omitempty"`
	DeadTimeUnits   *string  `json:"dead_time_units,omitempty"`
	PerPixelMaxFlux *float64 `json:"per_pixel_max_flux,omitempty"`
}

// BeamStop is one entry of the beam-stop table.
type BeamStop struct {
	BeamStopDiameter *float64 `json:"beam_stop_diameter,omitempty"`
	Units            *string  `json:"units,omitempty"`
}

// Data holds the empirical instrument constants.
type Data struct {
	PeakFlux        *float64 `json:"peak_flux,omitempty"`
	PeakWavelength  *float64 `json:"peak_wavelength,omitempty"`
	Beta            *float64 `json:"beta,omitempty"`
	Gamma           *float64 `json:"gamma,omitempty"`
	T1              *float64 `json:"t1,omitempty"`
	T2              *float64 `json:"t2,omitempty"`
	T3              *float64 `json:"t3,omitempty"`
	BSFactor        *float64 `json:"bs_factor,omitempty"`
	FluxCalibration *float64 `json:"flux_calibration,omitempty"`
}

// Slicer selects and shapes the 2-D → 1-D average. Angles are in degrees.
type Slicer struct {
	Mode             *string  `json:"mode,omitempty"`
	Phi              *float64 `json:"phi,omitempty"`
	DPhi             *float64 `json:"d_phi,omitempty"`
	DetectorSections *string  `json:"detector_sections,omitempty"`
	QCenter          *float64 `json:"q_center,omitempty"`
	QWidth           *float64 `json:"q_width,omitempty"`
	AspectRatio      *float64 `json:"aspect_ratio,omitempty"`
	ApertureOffset   *float64 `json:"aperture_offset,omitempty"`
	Coeff            *float64 `json:"coeff,omitempty"`
	XPixels          *int     `json:"x_pixels,omitempty"`
	YPixels          *int     `json:"y_pixels,omitempty"`
	CenterRadius     *float64 `json:"center_radius,omitempty"`
}

// Model names the scattering model and its parameters.
type Model struct {
	Name       *string            `json:"name,omitempty"`
	Parameters map[string]float64 `json:"parameters,omitempty"`
}

// Carriage is a VSANS detector carriage. Lengths are in cm.
type Carriage struct {
	SSDInput    *float64 `json:"ssd_input,omitempty"`
	Setback     *float64 `json:"setback,omitempty"`
	BeamCenterX *float64 `json:"beam_center_x,omitempty"`
	BeamCenterY *float64 `json:"beam_center_y,omitempty"`
}

// Panel is one VSANS detector panel. Offsets are in cm; calibration,
// tube width, gap and centre offset are in mm.
type Panel struct {
	LateralOffset  *float64  `json:"lateral_offset,omitempty"`
	VerticalOffset *float64  `json:"vertical_offset,omitempty"`
	Match          *bool     `json:"match,omitempty"`
	Calibration    []float64 `json:"calibration,omitempty"` // a0, a1, a2
	CtrOffset      *float64  `json:"ctr_offset,omitempty"`
	TubeWidth      *float64  `json:"tube_width,omitempty"`
	NumTubes       *int      `json:"num_tubes,omitempty"`
	NumPixels      *int      `json:"num_pixels,omitempty"`
	Gap            *float64  `json:"gap,omitempty"`
	Mask           [][]int   `json:"mask,omitempty"`
}

// QRange is the pseudo-instrument's user Q range (Å⁻¹).
type QRange struct {
	QMin         *float64 `json:"q_min,omitempty"`
	QMax         *float64 `json:"q_max,omitempty"`
	DQQ          *float64 `json:"dq_q,omitempty"`
	PointSpacing *string  `json:"point_spacing,omitempty"` // "lin" or "log"
	Points       *int     `json:"points,omitempty"`
	QxMin        *float64 `json:"qx_min,omitempty"`
	QxMax        *float64 `json:"qx_max,omitempty"`
	QyMin        *float64 `json:"qy_min,omitempty"`
	QyMax        *float64 `json:"qy_max,omitempty"`
}

// Helper functions to create pointers
func PtrFloat64(v float64) *float64 { return &v }
func PtrBool(v bool) *bool          { return &v }
func PtrString(v string) *string    { return &v }
func PtrInt(v int) *int             { return &v }

func getFloat(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func getInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func getString(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}

func getBool(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
