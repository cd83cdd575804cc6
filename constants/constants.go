/*package constants contains the SI physical constants used by the field
integrator and the particle pusher.
*/
package constants

const (
	// C is the speed of light in vacuum, in m/s.
	C = 299792458.0
	// Mu0 is the vacuum permeability, in H/m.
	Mu0 = 1.25663706212e-6
	// Epsilon0 is the vacuum permittivity, in F/m.
	Epsilon0 = 8.8541878128e-12

	// E is the elementary charge, in C.
	E = 1.602176634e-19
	// Me is the electron mass, in kg.
	Me = 9.1093837015e-31
)
