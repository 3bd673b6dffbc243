package trabajadorservice

import (
	"context"

	"gobodega/internal/domain"
	apperror "gobodega/internal/errors"
	"gobodega/internal/pkg/logger"
)

// Mensaje de confirmación de la baja lógica.
const MensajeTrabajadorDesactivado = "Trabajador desactivado correctamente"

// TrabajadorRepository define el contrato que el servicio de trabajadores
// espera de la capa de persistencia.
type TrabajadorRepository interface {
	Crear(ctx context.Context, trabajador domain.Trabajador) (domain.Trabajador, error)
	FindByID(ctx context.Context, id int64) (domain.Trabajador, error)
	FindAll(ctx context.Context, filtro domain.TrabajadorFiltro) ([]domain.Trabajador, error)
	Actualizar(ctx context.Context, trabajador domain.Trabajador) (domain.Trabajador, error)
	Desactivar(ctx context.Context, id int64) error
	Estadisticas(ctx context.Context) (domain.EstadisticasTrabajadores, error)
}

// Service orquesta las operaciones sobre el padrón de trabajadores.
type Service struct {
	repo   TrabajadorRepository
	logger logger.Logger
}

// NewService crea el servicio de trabajadores.
func NewService(repo TrabajadorRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CrearTrabajador valida y da de alta un trabajador activo.
func (s *Service) CrearTrabajador(ctx context.Context, trabajador domain.Trabajador) (domain.Trabajador, error) {
	if err := validarTrabajador(trabajador); err != nil {
		return domain.Trabajador{}, err
	}
	trabajador.Activo = true
	creado, err := s.repo.Crear(ctx, trabajador)
	if err != nil {
		return domain.Trabajador{}, err
	}
	s.logger.Info("Trabajador creado", map[string]interface{}{
		"trabajador_id": creado.ID,
		"codigo":        creado.Codigo,
	})
	return creado, nil
}

// ObtenerTrabajadores lista el padrón aplicando el filtro de búsqueda.
func (s *Service) ObtenerTrabajadores(ctx context.Context, filtro domain.TrabajadorFiltro) ([]domain.Trabajador, error) {
	return s.repo.FindAll(ctx, filtro)
}

// ObtenerTrabajadorPorID recupera un trabajador, activo o no.
func (s *Service) ObtenerTrabajadorPorID(ctx context.Context, id int64) (domain.Trabajador, error) {
	if id < 1 {
		return domain.Trabajador{}, apperror.NewValidationError("El ID del trabajador debe ser un número positivo")
	}
	return s.repo.FindByID(ctx, id)
}

// ActualizarTrabajador aplica los campos presentes de la actualización sobre
// el trabajador existente.
func (s *Service) ActualizarTrabajador(ctx context.Context, id int64, cambios domain.ActualizacionTrabajador) (domain.Trabajador, error) {
	if id < 1 {
		return domain.Trabajador{}, apperror.NewValidationError("El ID del trabajador debe ser un número positivo")
	}
	trabajador, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Trabajador{}, err
	}

	if cambios.Codigo != nil {
		trabajador.Codigo = *cambios.Codigo
	}
	if cambios.Nombre != nil {
		trabajador.Nombre = *cambios.Nombre
	}
	if cambios.Activo != nil {
		trabajador.Activo = *cambios.Activo
	}

	if err := validarTrabajador(trabajador); err != nil {
		return domain.Trabajador{}, err
	}
	return s.repo.Actualizar(ctx, trabajador)
}

// DesactivarTrabajador aplica la baja lógica. Falla si el trabajador tiene
// préstamos sin cerrar.
func (s *Service) DesactivarTrabajador(ctx context.Context, id int64) (string, error) {
	if id < 1 {
		return "", apperror.NewValidationError("El ID del trabajador debe ser un número positivo")
	}
	if err := s.repo.Desactivar(ctx, id); err != nil {
		return "", err
	}
	s.logger.Info("Trabajador desactivado", map[string]interface{}{"trabajador_id": id})
	return MensajeTrabajadorDesactivado, nil
}

// Estadisticas agrega los indicadores del padrón de trabajadores.
func (s *Service) Estadisticas(ctx context.Context) (domain.EstadisticasTrabajadores, error) {
	return s.repo.Estadisticas(ctx)
}

func validarTrabajador(trabajador domain.Trabajador) error {
	campos := map[string]string{}
	if trabajador.Codigo == "" {
		campos["codigo"] = "El código es obligatorio"
	}
	if trabajador.Nombre == "" {
		campos["nombre"] = "El nombre es obligatorio"
	}
	if len(campos) > 0 {
		return apperror.NewCamposError(campos)
	}
	return nil
}
