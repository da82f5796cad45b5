// Package domain models water-distribution network data on its way from GIS
// vector layers to an EPANET INP hydraulic model.
//
// # Element Kinds
//
// Six GIS layers feed a build, one per EPANET element kind:
//
//	junctions, tanks, reservoirs  →  nodes (point geometry)
//	pipes                         →  links (line geometry)
//	valves, pumps                 →  links when drawn as lines, nodes when
//	                                 drawn as points on top of a pipe run
//
// Multi-part geometries (MultiPoint, MultiLineString) are exploded into
// single-part features before topology building; every part inherits the
// parent feature's full property set. See [Normalize].
//
// # Units
//
// EPANET infers the unit system from the flow unit:
//
//	US customary: CFS, GPM, MGD, IMGD, AFD  →  feet, inches, psi
//	Metric:       LPS, LPM, MLD, CMH, CMD   →  meters, millimeters, kPa
//
// Attribute values are stored in whichever system the chosen flow unit
// implies; unit labels exist for display only and never trigger conversion.
//
// # Defaults
//
// Required attributes left unmapped resolve to schema defaults. The pipe
// roughness default depends on the headloss formula, because the three
// formulas use incompatible coefficient scales:
//
//	Hazen-Williams (H-W):  100   (dimensionless C-factor)
//	Darcy-Weisbach (D-W):  0.01  (roughness height, ft or mm)
//	Chezy-Manning  (C-M):  0.013 (Manning n)
//
// Diameter defaults are 12 in (US) or 300 mm (metric).
//
// # Identifiers
//
// Node and link IDs are minted from per-kind monotonic counters (J1, T1, R1,
// P1, V1, PU1, ...) in stable input order, so identical input produces an
// identical model. Links split during crossing resolution take suffixed IDs
// (P3_1, P3_2). IDs are unique across the whole model, not per kind.
package domain
