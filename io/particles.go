/*package io reads the configuration files of the fbpic binary and the
particle tables used to initialize species.
*/
package io

import (
	"fmt"

	"github.com/phil-mansfield/table"
)

// ParticleColumns is the number of columns of a particle table: x, y, z, ux,
// uy, uz and w.
const ParticleColumns = 7

// ReadParticleTable reads a whitespace-separated table of particles. The
// returned columns are ordered x, y, z, ux, uy, uz, w.
func ReadParticleTable(fname string) ([][]float64, error) {
	colIdxs := make([]int, ParticleColumns)
	for i := range colIdxs {
		colIdxs[i] = i
	}

	cols, err := table.ReadTable(fname, colIdxs, nil)
	if err != nil {
		return nil, fmt.Errorf(
			"Could not read particle table '%s': %s", fname, err.Error(),
		)
	}
	if len(cols) != ParticleColumns {
		return nil, fmt.Errorf(
			"Particle table '%s' has %d columns, but %d are required.",
			fname, len(cols), ParticleColumns,
		)
	}
	return cols, nil
}
