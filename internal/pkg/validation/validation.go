package validation

import (
	"fmt"
	"strings"
	"time"
)

// Validador acumula fallas de validación campo a campo. Se usa en los
// handlers antes de invocar la capa de servicio, produciendo un mapa
// campo→mensaje independiente de la persistencia.
type Validador struct {
	errores map[string]string
}

// Nuevo crea un validador vacío.
func Nuevo() *Validador {
	return &Validador{errores: make(map[string]string)}
}

// agregar registra la primera falla de cada campo; las siguientes se ignoran
// para que el mensaje reportado sea siempre el de la regla más temprana.
func (v *Validador) agregar(campo, mensaje string) {
	if _, existe := v.errores[campo]; !existe {
		v.errores[campo] = mensaje
	}
}

// Requerido valida que una cadena no sea vacía ni puro espacio.
func (v *Validador) Requerido(campo, valor, mensaje string) {
	if strings.TrimSpace(valor) == "" {
		v.agregar(campo, mensaje)
	}
}

// EnteroMinimo valida que un entero sea al menos el mínimo indicado.
func (v *Validador) EnteroMinimo(campo string, valor int, minimo int, mensaje string) {
	if valor < minimo {
		v.agregar(campo, mensaje)
	}
}

// IDPositivo valida que un identificador sea un entero positivo.
func (v *Validador) IDPositivo(campo string, valor int64, mensaje string) {
	if valor < 1 {
		v.agregar(campo, mensaje)
	}
}

// FechaOpcional valida que, de estar presente, el valor sea una fecha
// ISO (YYYY-MM-DD). Retorna la fecha parseada o nil.
func (v *Validador) FechaOpcional(campo, valor, mensaje string) *time.Time {
	if valor == "" {
		return nil
	}
	fecha, err := time.Parse("2006-01-02", valor)
	if err != nil {
		v.agregar(campo, mensaje)
		return nil
	}
	return &fecha
}

// EnumOpcional valida que, de estar presente, el valor pertenezca al conjunto
// de valores permitidos.
func (v *Validador) EnumOpcional(campo, valor string, permitidos []string, mensaje string) {
	if valor == "" {
		return
	}
	for _, p := range permitidos {
		if valor == p {
			return
		}
	}
	v.agregar(campo, mensaje)
}

// Campo permite registrar una falla arbitraria, útil para reglas que no
// encajan en los helpers (e.g. validaciones por posición en una lista).
func (v *Validador) Campo(campo, mensaje string) {
	v.agregar(campo, mensaje)
}

// CampoIndice registra una falla para un elemento de una lista, con notación
// posicional (items[2].nombre).
func (v *Validador) CampoIndice(lista string, indice int, campo, mensaje string) {
	v.agregar(fmt.Sprintf("%s[%d].%s", lista, indice, campo), mensaje)
}

// TieneErrores indica si se registró al menos una falla.
func (v *Validador) TieneErrores() bool {
	return len(v.errores) > 0
}

// Errores retorna el mapa campo→mensaje acumulado.
func (v *Validador) Errores() map[string]string {
	return v.errores
}
