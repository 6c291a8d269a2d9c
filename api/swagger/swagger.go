package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Tutorias API",
        "description": "Backend for academic tutoring: appointments, group sessions, enrollments and reports",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Auth", "description": "Authentication and profile management"},
        {"name": "Appointments", "description": "1:1 appointments between students and tutors"},
        {"name": "Tutorias", "description": "Group tutoring sessions"},
        {"name": "Inscripciones", "description": "Session enrollments, attendance and ratings"},
        {"name": "Reportes", "description": "Aggregate reports and exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate with email and password",
                "responses": {
                    "200": {"description": "Token pair issued"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Register a new account with its role profile",
                "responses": {
                    "201": {"description": "Account created"},
                    "409": {"description": "Email or matricula already registered"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange a refresh token for a new token pair",
                "responses": {
                    "200": {"description": "Token pair rotated"},
                    "401": {"description": "Token expired or revoked"}
                }
            }
        },
        "/auth/profile": {
            "get": {
                "tags": ["Auth"],
                "summary": "Get the authenticated user's profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Profile"}
                }
            },
            "put": {
                "tags": ["Auth"],
                "summary": "Update the authenticated user's profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Updated profile"}
                }
            }
        },
        "/citas": {
            "get": {
                "tags": ["Appointments"],
                "summary": "List upcoming appointments scoped to the caller",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Appointments"}
                }
            },
            "post": {
                "tags": ["Appointments"],
                "summary": "Book an appointment with a tutor",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Appointment created"},
                    "409": {"description": "Slot already taken"},
                    "422": {"description": "Outside the tutor's availability"}
                }
            }
        },
        "/citas/{id}/confirmar": {
            "put": {
                "tags": ["Appointments"],
                "summary": "Confirm a pending appointment",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Appointment confirmed"},
                    "409": {"description": "Appointment is cancelled"}
                }
            }
        },
        "/citas/{id}/cancelar": {
            "put": {
                "tags": ["Appointments"],
                "summary": "Cancel an appointment, releasing its slot",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Appointment cancelled"},
                    "409": {"description": "Appointment already cancelled"}
                }
            }
        },
        "/tutorias": {
            "get": {
                "tags": ["Tutorias"],
                "summary": "List sessions",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Sessions"}
                }
            },
            "post": {
                "tags": ["Tutorias"],
                "summary": "Open a new session",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Session created"}
                }
            }
        },
        "/tutorias/{id}": {
            "get": {
                "tags": ["Tutorias"],
                "summary": "Get a session with its enrollment count",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Session"}
                }
            },
            "put": {
                "tags": ["Tutorias"],
                "summary": "Update a session within its status gate",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Session updated"},
                    "409": {"description": "Change not allowed in the current status"}
                }
            },
            "delete": {
                "tags": ["Tutorias"],
                "summary": "Delete a session nobody enrolled in",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "Session deleted"},
                    "409": {"description": "Session has enrollments"}
                }
            }
        },
        "/tutorias/{id}/inscripciones": {
            "get": {
                "tags": ["Inscripciones"],
                "summary": "List the roster of a session",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Roster"}
                }
            }
        },
        "/inscripciones": {
            "post": {
                "tags": ["Inscripciones"],
                "summary": "Enroll a student into a session",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Enrollment created"},
                    "409": {"description": "Session full or duplicate enrollment"}
                }
            }
        },
        "/inscripciones/mias": {
            "get": {
                "tags": ["Inscripciones"],
                "summary": "List the caller's enrollment history",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Enrollments"}
                }
            }
        },
        "/inscripciones/{id}": {
            "delete": {
                "tags": ["Inscripciones"],
                "summary": "Leave a session that has not started",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "Enrollment removed"},
                    "409": {"description": "Session already started"}
                }
            }
        },
        "/inscripciones/{id}/asistencia": {
            "put": {
                "tags": ["Inscripciones"],
                "summary": "Record the attendance outcome of an enrollment",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Attendance recorded"}
                }
            }
        },
        "/inscripciones/{id}/calificar": {
            "put": {
                "tags": ["Inscripciones"],
                "summary": "Rate a finished session the student attended",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Rating stored"}
                }
            }
        },
        "/reportes/estudiante/{id}": {
            "get": {
                "tags": ["Reportes"],
                "summary": "Aggregate report for one student",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Report"}
                }
            }
        },
        "/reportes/tutor/{id}": {
            "get": {
                "tags": ["Reportes"],
                "summary": "Aggregate report for one tutor",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Report"}
                }
            }
        },
        "/reportes/semanal": {
            "get": {
                "tags": ["Reportes"],
                "summary": "Aggregate report over a date window",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Report"}
                }
            }
        },
        "/reportes/exportar/{tipo}": {
            "get": {
                "tags": ["Reportes"],
                "summary": "Download a report as PDF or CSV",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf", "text/csv"],
                "responses": {
                    "200": {"description": "Rendered document"}
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
