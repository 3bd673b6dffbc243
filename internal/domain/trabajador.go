package domain

import "time"

// Trabajador representa a una persona habilitada para recibir préstamos de
// herramientas. Nunca se elimina físicamente: se desactiva con activo=false.
type Trabajador struct {
	ID            int64     `json:"id"`
	Codigo        string    `json:"codigo"` // Código único del trabajador
	Nombre        string    `json:"nombre"`
	Activo        bool      `json:"activo"`
	FechaRegistro time.Time `json:"fechaRegistro"`
}

// TrabajadorResumen es la proyección reducida (id, código, nombre) que
// acompaña a los préstamos y reportes.
type TrabajadorResumen struct {
	ID     int64  `json:"id"`
	Codigo string `json:"codigo"`
	Nombre string `json:"nombre"`
}

// TrabajadorFiltro define los parámetros de búsqueda del listado.
type TrabajadorFiltro struct {
	Busqueda string // Coincidencia parcial sobre código o nombre
	Activo   *bool  // nil = sin filtro
}

// ActualizacionTrabajador es el payload de actualización parcial.
type ActualizacionTrabajador struct {
	Codigo *string `json:"codigo"`
	Nombre *string `json:"nombre"`
	Activo *bool   `json:"activo"`
}

// TrabajadorConPrestamos acompaña las estadísticas: un trabajador junto a su
// cantidad total de préstamos.
type TrabajadorConPrestamos struct {
	TrabajadorResumen
	TotalPrestamos int `json:"totalPrestamos"`
}

// EstadisticasTrabajadores agrega los totales del padrón de trabajadores.
type EstadisticasTrabajadores struct {
	TotalTrabajadores        int                      `json:"totalTrabajadores"`
	TrabajadoresActivos      int                      `json:"trabajadoresActivos"`
	TrabajadoresInactivos    int                      `json:"trabajadoresInactivos"`
	TrabajadoresTopPrestamos []TrabajadorConPrestamos `json:"trabajadoresTopPrestamos"`
}
