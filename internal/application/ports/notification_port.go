package ports

// Notification correo saliente de mejor esfuerzo.
type Notification struct {
	ID      string
	To      string
	Subject string
	Text    string
	HTML    string
}

// Notifier encola notificaciones para entrega asíncrona. No debe bloquear al llamador;
// los fallos de entrega se registran y nunca se devuelven.
type Notifier interface {
	Notify(n Notification)
}
